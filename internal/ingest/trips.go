package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// DefaultTruckType is used when an import has no truck type column or cell.
const DefaultTruckType = "Electric"

// Columns a trip import cannot do without.
var essentialTripColumns = []string{ColCustomer, ColFrom, ColTo, ColPlate}

// Columns of the standard trip template. Missing ones only produce warnings.
var expectedTripColumns = []string{ColDate, ColCustomer, ColFrom, ColTo, ColCargo, ColTruckType, ColPlate}

// RowError describes an input row that was not imported. Row is the 1-based
// line number in the uploaded sheet.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// TripImport is the outcome of parsing a trip sheet.
type TripImport struct {
	Trips          []models.Trip `json:"-"`
	TotalRows      int           `json:"total_rows"`
	ValidRows      int           `json:"valid_rows"`
	Rejected       []RowError    `json:"rejected"`
	Warnings       []string      `json:"warnings"`
	MissingColumns []string      `json:"missing_columns,omitempty"`
	TMS            bool          `json:"tms_format"`
}

// ParseTrips converts sheet rows into trips. The header is the first row,
// or the TMS header row when one is found near the top of the sheet. now is
// used as the trip date when the sheet has no date column.
func ParseTrips(rows [][]string, now time.Time) (TripImport, error) {
	res := TripImport{Rejected: []RowError{}, Warnings: []string{}}
	if len(rows) == 0 {
		return res, ErrEmptySheet
	}

	headerIdx := detectTMS(rows)
	if headerIdx >= 0 {
		res.TMS = true
	} else {
		headerIdx = 0
	}
	cols := mapHeader(rows[headerIdx], tripAliases)

	if missing := cols.missing(essentialTripColumns...); len(missing) > 0 {
		return res, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	res.MissingColumns = cols.missing(expectedTripColumns...)
	if len(res.MissingColumns) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("missing columns %s; importing available data", strings.Join(res.MissingColumns, ", ")))
	}
	if !cols.has(ColDate) {
		res.Warnings = append(res.Warnings, "no date column found; using import date")
	}

	var badNumbers, negatives, badDates, defaultedTypes int
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		res.TotalRows++
		line := i + 1

		if field := firstEmpty(cols, row, essentialTripColumns); field != "" {
			res.Rejected = append(res.Rejected, RowError{Row: line, Field: field, Message: "value is required"})
			continue
		}

		trip := models.Trip{
			ID:               cols.get(row, ColTripID),
			TruckID:          cols.get(row, ColPlate),
			Customer:         cols.get(row, ColCustomer),
			PickupLocation:   cols.get(row, ColFrom),
			DeliveryLocation: cols.get(row, ColTo),
			TruckType:        cols.get(row, ColTruckType),
			Date:             now,
		}
		if trip.TruckType == "" {
			trip.TruckType = DefaultTruckType
			defaultedTypes++
		}

		if cols.has(ColDate) {
			if d, ok := parseDate(cols.get(row, ColDate)); ok {
				trip.Date = d
			} else {
				trip.Date = time.Time{}
				badDates++
			}
		}

		for _, f := range []struct {
			col string
			dst **float64
		}{
			{ColCargo, &trip.CargoTons},
			{ColDistance, &trip.DistanceKm},
			{ColEnergy, &trip.EnergyKWh},
		} {
			v, ok := parseNumber(cols.get(row, f.col))
			switch {
			case !ok:
				v = models.Float(0)
				badNumbers++
			case v != nil && (!models.IsFinite(*v) || *v < 0):
				v = models.Float(0)
				negatives++
			}
			*f.dst = v
		}

		res.Trips = append(res.Trips, trip)
	}
	res.ValidRows = len(res.Trips)

	if badNumbers > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d numeric values could not be read and were set to 0", badNumbers))
	}
	if negatives > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d negative values were set to 0", negatives))
	}
	if badDates > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d dates could not be parsed", badDates))
	}
	if defaultedTypes > 0 && cols.has(ColTruckType) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d rows had no truck type; using %s", defaultedTypes, DefaultTruckType))
	}
	return res, nil
}

func firstEmpty(cols columns, row []string, names []string) string {
	for _, name := range names {
		if cols.get(row, name) == "" {
			return name
		}
	}
	return ""
}

// ValidationError lists invalid fields of a manually entered record.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range sortedKeys(e.Fields) {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "invalid trip: " + strings.Join(parts, "; ")
}

// ValidateTrip checks a manually entered trip. Unlike file imports, negative
// or non-finite figures are rejected rather than clipped. A trip may have no
// truck yet.
func ValidateTrip(t models.Trip) error {
	fields := make(map[string]string)
	check := func(name string, p *float64) {
		if p == nil {
			return
		}
		switch {
		case !models.IsFinite(*p):
			fields[name] = "must be a finite number"
		case *p < 0:
			fields[name] = "must not be negative"
		}
	}
	check(ColCargo, t.CargoTons)
	check(ColDistance, t.DistanceKm)
	check(ColEnergy, t.EnergyKWh)

	if (strings.TrimSpace(t.PickupLocation) == "") != (strings.TrimSpace(t.DeliveryLocation) == "") {
		fields[ColFrom] = "pickup and delivery locations must be given together"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
