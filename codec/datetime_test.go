package codec

import (
	"testing"
	"time"
)

func TestParseDateTime_Accepts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-15T00:00:00":           time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"2024-01-15T10:30":              time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15":                    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"2025-01-01T00:00:00Z":          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-01-15T00:00:00.25":        time.Date(2024, 1, 15, 0, 0, 0, 250000000, time.UTC),
		"2024-01-15T09:00:00+09:00":     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"2024-01-15T09:00:00.123+09:00": time.Date(2024, 1, 15, 0, 0, 0, 123000000, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDateTime(in)
		if !ok {
			t.Fatalf("%q: expected date-time", in)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
}

func TestParseDateTime_Rejects(t *testing.T) {
	for _, in := range []string{"", "hello", "2024", "2024-13-01", "2024-01-15T", "12345-01-01", "2024/01/15", "69000"} {
		if _, ok := ParseDateTime(in); ok {
			t.Fatalf("%q: expected plain string", in)
		}
	}
}

func TestFormatDateTime_Roundtrip(t *testing.T) {
	in := "2025-01-01T00:00:00Z"
	tm, ok := ParseDateTime(in)
	if !ok {
		t.Fatalf("parse failed")
	}
	if out := FormatDateTime(tm); out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
}

func TestDateTimeLiteral_KeepsSourceText(t *testing.T) {
	for _, in := range []string{
		"2024-01-15T00:00:00",
		"2024-01-15",
		"2024-01-15T10:00:00.000+00:00",
		"2024-01-15T10:30",
	} {
		d, ok := ParseDateTimeLiteral(in)
		if !ok {
			t.Fatalf("%q: expected date-time", in)
		}
		if d.String() != in {
			t.Fatalf("%q: String() = %q", in, d.String())
		}
		b, err := d.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != `"`+in+`"` {
			t.Fatalf("%q: MarshalJSON = %s", in, b)
		}
	}

	if _, ok := ParseDateTimeLiteral("hello"); ok {
		t.Fatalf("plain string accepted")
	}
	bare := DateTime{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	if bare.String() != "2024-01-15T00:00:00Z" {
		t.Fatalf("bare String() = %q", bare.String())
	}
}
