package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// ParseEnergy converts rows of plate_number, period and kwh_per_km into
// readings. Values outside the realistic consumption range are rejected.
func ParseEnergy(rows [][]string) ([]models.EnergyReading, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}
	cols := mapHeader(rows[0], energyAliases)
	if missing := cols.missing(ColPlate, ColPeriod, ColKWhPerKm); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	readings := []models.EnergyReading{}
	rejected := []RowError{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		if field := firstEmpty(cols, row, []string{ColPlate, ColPeriod, ColKWhPerKm}); field != "" {
			rejected = append(rejected, RowError{Row: line, Field: field, Message: "value is required"})
			continue
		}
		period, ok := NormalizePeriod(cols.get(row, ColPeriod))
		if !ok {
			rejected = append(rejected, RowError{Row: line, Field: ColPeriod, Message: "expected YYYY-MM"})
			continue
		}
		v, ok := parseNumber(cols.get(row, ColKWhPerKm))
		if !ok || v == nil {
			rejected = append(rejected, RowError{Row: line, Field: ColKWhPerKm, Message: "not a number"})
			continue
		}
		if *v < models.MinKWhPerKm || *v > models.MaxKWhPerKm {
			rejected = append(rejected, RowError{
				Row:     line,
				Field:   ColKWhPerKm,
				Message: fmt.Sprintf("%.2f outside %.1f..%.1f kWh/km", *v, models.MinKWhPerKm, models.MaxKWhPerKm),
			})
			continue
		}
		readings = append(readings, models.EnergyReading{
			TruckID:  cols.get(row, ColPlate),
			Period:   period,
			KWhPerKm: *v,
		})
	}
	return readings, rejected, nil
}

// ParseLocations converts rows of location_name and either a "lat,lng"
// coordinates column or separate lat and lng columns.
func ParseLocations(rows [][]string) ([]models.Location, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}
	cols := mapHeader(rows[0], locationAliases)
	split := cols.has(ColLat) && cols.has(ColLon)
	if !cols.has(ColLocationName) || (!cols.has(ColCoordinates) && !split) {
		missing := cols.missing(ColLocationName)
		if !cols.has(ColCoordinates) && !split {
			missing = append(missing, ColCoordinates)
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	locations := []models.Location{}
	rejected := []RowError{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		name := cols.get(row, ColLocationName)
		if name == "" {
			rejected = append(rejected, RowError{Row: line, Field: ColLocationName, Message: "value is required"})
			continue
		}

		var lat, lon float64
		var err error
		if cols.has(ColCoordinates) && cols.get(row, ColCoordinates) != "" {
			lat, lon, err = models.ParseCoordinates(cols.get(row, ColCoordinates))
		} else if split {
			lat, lon, err = models.ParseCoordinates(cols.get(row, ColLat) + "," + cols.get(row, ColLon))
		} else {
			err = fmt.Errorf("value is required")
		}
		if err != nil {
			rejected = append(rejected, RowError{Row: line, Field: ColCoordinates, Message: err.Error()})
			continue
		}
		locations = append(locations, models.Location{Name: name, Lat: lat, Lon: lon})
	}
	return locations, rejected, nil
}

// ParseRoutes converts rows of from_location_name, to_location_name,
// km_distance and source. An empty distance is kept as 0 so it can be
// resolved later; an unknown source is recorded as Other.
func ParseRoutes(rows [][]string) ([]models.Route, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}
	cols := mapHeader(rows[0], routeAliases)
	if missing := cols.missing(ColRouteFrom, ColRouteTo, ColKm); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	routes := []models.Route{}
	rejected := []RowError{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		if field := firstEmpty(cols, row, []string{ColRouteFrom, ColRouteTo}); field != "" {
			rejected = append(rejected, RowError{Row: line, Field: field, Message: "value is required"})
			continue
		}
		v, ok := parseNumber(cols.get(row, ColKm))
		if !ok || (v != nil && (!models.IsFinite(*v) || *v < 0)) {
			rejected = append(rejected, RowError{Row: line, Field: ColKm, Message: "must be a non-negative number"})
			continue
		}
		source := canonicalSource(cols.get(row, ColSource))
		route := models.Route{
			From:   cols.get(row, ColRouteFrom),
			To:     cols.get(row, ColRouteTo),
			Source: source,
		}
		if v != nil {
			route.DistanceKm = *v
		}
		routes = append(routes, route)
	}
	return routes, rejected, nil
}

func canonicalSource(s string) string {
	if s == "" {
		return models.SourceManual
	}
	for _, known := range []string{models.SourceManual, models.SourceGoogleMaps, models.SourceHaversine, models.SourceOther} {
		if strings.EqualFold(s, known) {
			return known
		}
	}
	return models.SourceOther
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
