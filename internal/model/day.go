package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// Day is a calendar date without a time of day. The backend sends it
// either as "2006-01-02" or as a full RFC 3339 timestamp.
type Day strfmt.Date

func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, nil
	}
	if t, err := time.Parse(strfmt.RFC3339FullDate, s); err == nil {
		return NewDay(t), nil
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDay(time.Time(dt).UTC()), nil
}

func (d Day) Time() time.Time { return time.Time(d) }

func (d Day) IsZero() bool { return time.Time(d).IsZero() }

func (d Day) Equal(other Day) bool { return time.Time(d).Equal(time.Time(other)) }

func (d Day) Before(other Day) bool { return time.Time(d).Before(time.Time(other)) }

// DaysUntil returns the number of whole calendar days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(time.Time(other).Sub(time.Time(d)).Hours() / 24)
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return strfmt.Date(d).String()
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Day{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
