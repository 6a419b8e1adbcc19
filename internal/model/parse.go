package model

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats CRMs and spreadsheets emit. It returns
// nil for empty or unparseable input.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	// Epoch milliseconds.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

// SafeFloat parses s as a float, returning 0 on any failure.
func SafeFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SafeInt parses s as an integer, returning nil when empty or invalid.
// Decimal strings such as "120.0" are truncated.
func SafeInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		v := int(f)
		return &v
	}
	return nil
}

// OptionalFloat parses s as a float, returning nil when empty or invalid.
func OptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// EmployeeBand buckets a raw employee count. Non-numeric input is returned
// unchanged.
func EmployeeBand(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	switch {
	case n <= 10:
		return "1-10"
	case n <= 50:
		return "11-50"
	case n <= 200:
		return "51-200"
	case n <= 500:
		return "201-500"
	case n <= 1000:
		return "501-1000"
	default:
		return "1000+"
	}
}

// RevenueBand buckets a raw annual revenue figure. Non-numeric input is
// returned unchanged.
func RevenueBand(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	switch {
	case v < 1_000_000:
		return "<$1M"
	case v < 5_000_000:
		return "$1M-$5M"
	case v < 20_000_000:
		return "$5M-$20M"
	case v < 70_000_000:
		return "$20M-$70M"
	default:
		return "$70M+"
	}
}

// DaysBetween returns the whole number of days from t to now, floored.
func DaysBetween(now, t time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

// Round rounds x to places decimals. Ties go to the even digit of the exact
// binary value, so 2.675 rounds to 2.67.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// RoundInt rounds x to the nearest integer, ties to even.
func RoundInt(x float64) int {
	return int(math.RoundToEven(x))
}

var printer = message.NewPrinter(language.English)

// Money formats v as whole dollars with thousands separators.
func Money(v float64) string {
	return printer.Sprintf("$%d", int64(math.RoundToEven(v)))
}

// Grouped formats v with thousands separators and no decimals.
func Grouped(v float64) string {
	return printer.Sprintf("%d", int64(math.RoundToEven(v)))
}

// Decimal formats v in its shortest form but always with a fractional part,
// so 20 prints as "20.0" and 33.3 as "33.3".
func Decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
