package ingest

import (
	"strings"
)

// Canonical column names.
const (
	ColDate         = "date"
	ColCustomer     = "customer"
	ColFrom         = "from_location"
	ColTo           = "to_location"
	ColCargo        = "tons_loaded"
	ColTruckType    = "truck_type"
	ColPlate        = "plate_number"
	ColDistance     = "distance_km"
	ColEnergy       = "energy_kwh"
	ColTripID       = "trip_id"
	ColPeriod       = "period"
	ColKWhPerKm     = "kwh_per_km"
	ColLocationName = "location_name"
	ColCoordinates  = "coordinates"
	ColLat          = "lat"
	ColLon          = "lng"
	ColRouteFrom    = "from_location_name"
	ColRouteTo      = "to_location_name"
	ColKm           = "km_distance"
	ColSource       = "source"
)

// Header names of the TMS trip export and the columns they map to.
var tmsColumns = map[string]string{
	"Head Plate Number": ColPlate,
	"Customer":          ColCustomer,
	"Orgin":             ColFrom,
	"Destination":       ColTo,
	"Total Weight":      ColCargo,
	"Departure Date":    ColDate,
	"Trip KM":           ColDistance,
	"Req. Truck Type":   ColTruckType,
}

// tmsMinMatches is how many TMS header names a row needs to be taken as the
// header; tmsScanRows is how far down the sheet to look for it.
const (
	tmsMinMatches = 3
	tmsScanRows   = 5
)

var tripAliases = map[string][]string{
	ColDate:      {"date", "tripdate", "departuredate"},
	ColCustomer:  {"customer", "customername", "client"},
	ColFrom:      {"fromlocation", "from", "origin", "orgin", "pickup", "pickuplocation"},
	ColTo:        {"tolocation", "to", "destination", "delivery", "deliverylocation"},
	ColCargo:     {"tonsloaded", "tons", "cargotons", "cargo", "totalweight", "weight"},
	ColTruckType: {"trucktype", "reqtrucktype", "type"},
	ColPlate:     {"platenumber", "plate", "truckplate", "plateno", "headplatenumber", "truckid", "truck"},
	ColDistance:  {"distancekm", "distance", "km", "tripkm"},
	ColEnergy:    {"energykwh", "energy", "kwh"},
	ColTripID:    {"tripid", "id"},
}

var energyAliases = map[string][]string{
	ColPlate:    {"platenumber", "plate", "truckplate", "plateno", "truckid", "truck"},
	ColPeriod:   {"period", "month", "yearmonth"},
	ColKWhPerKm: {"kwhperkm", "kwhkm", "efficiency", "consumption"},
}

var locationAliases = map[string][]string{
	ColLocationName: {"locationname", "location", "name"},
	ColCoordinates:  {"coordinates", "coords", "latlng"},
	ColLat:          {"lat", "latitude"},
	ColLon:          {"lng", "lon", "long", "longitude"},
}

var routeAliases = map[string][]string{
	ColRouteFrom: {"fromlocationname", "fromlocation", "from", "origin"},
	ColRouteTo:   {"tolocationname", "tolocation", "to", "destination"},
	ColKm:        {"kmdistance", "distancekm", "distance", "km"},
	ColSource:    {"source"},
}

// normalizeHeader reduces a header cell to lower-case letters and digits.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// columns maps canonical column names to cell indexes.
type columns map[string]int

func mapHeader(header []string, aliases map[string][]string) columns {
	index := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := index[n]; !dup && n != "" {
			index[n] = i
		}
	}
	cols := make(columns)
	for name, names := range aliases {
		for _, alias := range names {
			if i, ok := index[alias]; ok {
				cols[name] = i
				break
			}
		}
	}
	return cols
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

// missing returns the required columns absent from the header, in order.
func (c columns) missing(required ...string) []string {
	var out []string
	for _, name := range required {
		if !c.has(name) {
			out = append(out, name)
		}
	}
	return out
}

// get returns the trimmed cell of the named column, or "".
func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// detectTMS returns the index of a TMS header row within the first rows of
// the sheet, or -1.
func detectTMS(rows [][]string) int {
	for i := 0; i < len(rows) && i < tmsScanRows; i++ {
		matches := 0
		seen := make(map[string]bool)
		for _, cell := range rows[i] {
			v := strings.TrimSpace(cell)
			if _, ok := tmsColumns[v]; ok && !seen[v] {
				seen[v] = true
				matches++
			}
		}
		if matches >= tmsMinMatches {
			return i
		}
	}
	return -1
}
