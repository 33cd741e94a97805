package toml

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeKind distinguishes the four date-time forms of the format.
type DateTimeKind uint8

const (
	// OffsetDateTime is a full timestamp with a UTC offset.
	OffsetDateTime DateTimeKind = iota
	// LocalDateTime is a timestamp without an offset.
	LocalDateTime
	// LocalDate is a calendar date.
	LocalDate
	// LocalTime is a time of day.
	LocalTime
)

// DateTime is a parsed date-time literal. It is carried through the value
// tree without further interpretation.
type DateTime struct {
	Kind DateTimeKind
	// Time holds the parsed instant. Local forms use time.UTC as location
	// and zero fields for the missing parts.
	Time time.Time
	raw  string
}

// NewDateTime returns an offset date-time for t.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Kind: OffsetDateTime, Time: t, raw: t.Format(time.RFC3339Nano)}
}

// String returns the literal as it should be written back.
func (d DateTime) String() string {
	if d.raw != "" {
		return d.raw
	}
	switch d.Kind {
	case LocalDateTime:
		return d.Time.Format("2006-01-02T15:04:05.999999999")
	case LocalDate:
		return d.Time.Format("2006-01-02")
	case LocalTime:
		return d.Time.Format("15:04:05.999999999")
	default:
		return d.Time.Format(time.RFC3339Nano)
	}
}

// Equal reports whether d and o denote the same literal.
func (d DateTime) Equal(o DateTime) bool {
	return d.Kind == o.Kind && d.Time.Equal(o.Time)
}

var dateTimeLayouts = []struct {
	kind   DateTimeKind
	layout string
}{
	{OffsetDateTime, "2006-01-02T15:04:05.999999999Z07:00"},
	{LocalDateTime, "2006-01-02T15:04:05.999999999"},
	{LocalDate, "2006-01-02"},
	{LocalTime, "15:04:05.999999999"},
}

// parseDateTime parses one of the four literal forms. Lower-case t/z and a
// space separator between date and time are accepted.
func parseDateTime(lit string) (DateTime, error) {
	norm := strings.ToUpper(lit)
	if len(norm) > 10 && norm[10] == ' ' {
		norm = norm[:10] + "T" + norm[11:]
	}
	for _, l := range dateTimeLayouts {
		t, err := time.Parse(l.layout, norm)
		if err == nil {
			return DateTime{Kind: l.kind, Time: t, raw: norm}, nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid date-time %q", lit)
}
