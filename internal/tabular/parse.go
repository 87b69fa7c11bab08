package tabular

import (
	"strconv"
	"strings"
)

// ParseMeasure parses a numeric measure field leniently: decimals are
// truncated toward zero and empty or malformed values return def. Bad
// measures degrade a single cell, never the run.
func ParseMeasure(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return int64(f)
}

// ParseIntOr parses a plain integer field, returning def on failure.
func ParseIntOr(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// TrimQuotes removes surrounding single or double quotes from a field.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
