package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// Audit checks stored trips and readings for problems that would distort
// reports. It returns human-readable warnings; an empty result means the data
// is usable as is.
func Audit(trips []models.Trip, readings []models.EnergyReading) []string {
	warnings := []string{}
	if len(trips) == 0 {
		warnings = append(warnings, "trip data is empty")
	}

	var noTruck, noDistance, noCargo, negDistance, negCargo, negEnergy int
	for _, t := range trips {
		if strings.TrimSpace(t.TruckID) == "" {
			noTruck++
		}
		if t.DistanceKm == nil {
			noDistance++
		} else if *t.DistanceKm < 0 {
			negDistance++
		}
		if t.CargoTons == nil {
			noCargo++
		} else if *t.CargoTons < 0 {
			negCargo++
		}
		if t.EnergyKWh != nil && *t.EnergyKWh < 0 {
			negEnergy++
		}
	}
	add := func(n int, format string) {
		if n > 0 {
			warnings = append(warnings, fmt.Sprintf(format, n))
		}
	}
	add(noTruck, "%d trips have no plate number")
	add(noDistance, "%d trips have no distance")
	add(noCargo, "%d trips have no cargo weight")
	add(negDistance, "%d trips have negative distances")
	add(negCargo, "%d trips have negative cargo weights")
	add(negEnergy, "%d trips have negative energy figures")

	var high, low int
	for _, r := range readings {
		if r.KWhPerKm > models.MaxKWhPerKm {
			high++
		}
		if r.KWhPerKm <= 0 {
			low++
		}
	}
	add(high, "%d energy readings are unrealistically high (>10 kWh/km)")
	add(low, "%d energy readings are zero or negative")

	if len(trips) > 0 && len(readings) > 0 {
		withEnergy := make(map[string]bool)
		for _, r := range readings {
			withEnergy[strings.ToLower(strings.TrimSpace(r.TruckID))] = true
		}
		missing := make(map[string]bool)
		for _, t := range trips {
			id := strings.TrimSpace(t.TruckID)
			if id != "" && !withEnergy[strings.ToLower(id)] {
				missing[id] = true
			}
		}
		if len(missing) > 0 {
			ids := make([]string, 0, len(missing))
			for id := range missing {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			warnings = append(warnings, "missing energy data for trucks: "+strings.Join(ids, ", "))
		}
	}
	return warnings
}
