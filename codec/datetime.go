// Package codec holds the scalar conversions the decoder and merger share.
package codec

import (
	"time"

	"github.com/goccy/go-json"
)

// dateTimeLayouts are tried in order. They cover the ISO 8601 profile that
// JSON producers commonly emit: full RFC 3339 with an offset, local date-time
// without an offset (minutes, seconds, or fractional seconds), and bare dates.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDateTime reports whether s is a date-time literal and returns its
// value. Strings without a zone offset are interpreted in UTC.
func ParseDateTime(s string) (time.Time, bool) {
	if !looksLikeDate(s) {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateTime is a decoded date-time literal. Text keeps the literal as it
// appeared in the input so re-encoding reproduces it exactly; values built
// from a bare time.Time have an empty Text and render in RFC 3339.
type DateTime struct {
	Time time.Time
	Text string
}

// ParseDateTimeLiteral is ParseDateTime keeping the source text.
func ParseDateTimeLiteral(s string) (DateTime, bool) {
	t, ok := ParseDateTime(s)
	if !ok {
		return DateTime{}, false
	}
	return DateTime{Time: t, Text: s}, true
}

// String returns the source literal, or t in RFC 3339 form.
func (d DateTime) String() string {
	if d.Text != "" {
		return d.Text
	}
	return FormatDateTime(d.Time)
}

// MarshalJSON writes the value as a JSON string.
func (d DateTime) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// FormatDateTime renders t in canonical RFC 3339 form. Go trims trailing
// fractional zeros.
func FormatDateTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// looksLikeDate rejects most plain strings before any layout is attempted.
func looksLikeDate(s string) bool {
	if len(s) < len(time.DateOnly) || s[4] != '-' || s[7] != '-' {
		return false
	}
	for _, i := range [...]int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
