package kitchen

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ClockTime is a household-local time of day, stored as minutes after midnight.
type ClockTime int

func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return NewClockTime(h, m), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

func (c ClockTime) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Equipment holds the household-owned tool flags.
type Equipment struct {
	Oven     bool `json:"oven"`
	Stovetop bool `json:"stovetop"`
	Blender  bool `json:"blender"`
}

// Has reports whether the household owns tool. Tools with no flag are never owned.
func (e Equipment) Has(tool string) bool {
	switch CanonicalName(tool) {
	case "oven":
		return e.Oven
	case "stovetop":
		return e.Stovetop
	case "blender":
		return e.Blender
	default:
		return false
	}
}

// Household is the per-request, read-only household configuration.
type Household struct {
	ID             string    `json:"id"`
	Timezone       string    `json:"timezone"`
	DinnerEarliest ClockTime `json:"dinner_earliest"`
	DinnerLatest   ClockTime `json:"dinner_latest"`
	Equipment      Equipment `json:"equipment"`
}

func (h Household) Location() (*time.Location, error) {
	if h.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return nil, fmt.Errorf("household %s timezone: %w", h.ID, err)
	}
	return loc, nil
}

func (h Household) Validate() error {
	if h.ID == "" {
		return errors.New("household id is required")
	}
	if _, err := h.Location(); err != nil {
		return err
	}
	return nil
}
