package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. Slashed dates are read month first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01-02-06",
	"1-2-06",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Excel serial numbers in this range are read as dates (1954..2119).
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// parseDate parses a date cell. Dates carry no zone and are read as UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a numeric cell, tolerating thousands separators and a
// trailing unit. Empty cells return ok with a nil value.
func parseNumber(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, true
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(s), "km"), "t"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// NormalizePeriod turns a month value such as "2025-08", "2025/08", "Aug 2025"
// or a date into "YYYY-MM".
func NormalizePeriod(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Format("2006-01"), true
	}
	if t, err := time.Parse("2006/01", s); err == nil {
		return t.Format("2006-01"), true
	}
	if t, err := time.Parse("Jan 2006", s); err == nil {
		return t.Format("2006-01"), true
	}
	if t, ok := parseDate(s); ok {
		return t.Format("2006-01"), true
	}
	return "", false
}
