package models

import (
	"fmt"
	"strings"
	"time"
)

// Activity categories with planner-specific handling
const (
	CategoryFood = "food"
)

// Window is an opening window in minutes from midnight. CloseMin may exceed
// MinutesPerDay for venues that close after midnight.
type Window struct {
	OpenMin  int `json:"open_min"`
	CloseMin int `json:"close_min"`
}

// Contains reports whether [start, start+duration) lies inside the window
func (w Window) Contains(startMin, durationMin int) bool {
	return startMin >= w.OpenMin && startMin+durationMin <= w.CloseMin
}

// Length returns the window length in minutes
func (w Window) Length() int {
	return w.CloseMin - w.OpenMin
}

// NewWindow builds a window, wrapping the close time past midnight when it precedes the open time
func NewWindow(openMin, closeMin int) Window {
	if closeMin < openMin {
		closeMin += MinutesPerDay
	}
	return Window{OpenMin: openMin, CloseMin: closeMin}
}

// OpeningHours holds either a single daily window or per-weekday windows
type OpeningHours struct {
	Daily  *Window                 `json:"daily,omitempty"`
	Weekly map[time.Weekday]Window `json:"weekly,omitempty"`
}

// WindowFor resolves the opening window for a date. ok is false when the venue is closed.
func (h OpeningHours) WindowFor(date time.Time) (Window, bool) {
	if h.Daily != nil {
		return *h.Daily, true
	}
	w, ok := h.Weekly[date.Weekday()]
	return w, ok
}

// FixedTime is a declared show-time. An empty Date applies to every day of the trip.
type FixedTime struct {
	Date     string `json:"date,omitempty"`
	StartMin int    `json:"start_min"`
}

// AppliesTo reports whether the fixed time is valid on the given date
func (f FixedTime) AppliesTo(date time.Time) bool {
	return f.Date == "" || f.Date == date.Format(DateLayout)
}

// ParseFixedTime parses "17:00", "7:30 PM" or "2025-08-03 17:00"
func ParseFixedTime(s string) (FixedTime, error) {
	v := NormalizeClock(s)
	if len(v) > len(DateLayout) && v[4] == '-' {
		datePart, clockPart := v[:len(DateLayout)], strings.TrimSpace(v[len(DateLayout):])
		if _, err := time.Parse(DateLayout, datePart); err != nil {
			return FixedTime{}, fmt.Errorf("invalid fixed time date %q: %w", datePart, err)
		}
		m, err := ParseClock(clockPart)
		if err != nil {
			return FixedTime{}, err
		}
		return FixedTime{Date: datePart, StartMin: m}, nil
	}
	m, err := ParseClock(v)
	if err != nil {
		return FixedTime{}, err
	}
	return FixedTime{StartMin: m}, nil
}

// Activity is an immutable bookable template. Planning never mutates an
// Activity; adjusted variants are produced with Derive.
type Activity struct {
	ID              string       `json:"id" validate:"required"`
	Name            string       `json:"name" validate:"required"`
	Category        string       `json:"category"`
	Tags            []string     `json:"tags"`
	Venue           string       `json:"venue,omitempty"`
	City            string       `json:"city,omitempty"`
	Location        Location     `json:"location"`
	DurationMin     int          `json:"duration_min" validate:"gt=0"`
	Cost            float64      `json:"cost" validate:"gte=0"`
	AgeMin          int          `json:"age_min" validate:"gte=0"`
	AgeMax          int          `json:"age_max" validate:"gtefield=AgeMin"`
	OpeningHours    OpeningHours `json:"opening_hours"`
	FixedTimes      []FixedTime  `json:"fixed_times,omitempty"`
	RequiresBooking bool         `json:"requires_booking"`
	WeatherBlockers []string     `json:"weather_blockers,omitempty"`
	Popularity      float64      `json:"popularity" validate:"gte=0,lte=1"`
	VibeTags        []string     `json:"vibe_tags,omitempty"`
	EnergyLevel     *float64     `json:"energy_level,omitempty"` // 0-100, overrides the derived cost
	Notes           []string     `json:"notes,omitempty"`
	DerivedFrom     string       `json:"derived_from,omitempty"` // template ID when produced by Derive
}

// IsAnchor reports whether the activity only runs at declared fixed times
func (a *Activity) IsAnchor() bool {
	return len(a.FixedTimes) > 0
}

// IsFood reports whether the activity is a meal
func (a *Activity) IsFood() bool {
	return a.Category == CategoryFood
}

// Duration returns the activity duration
func (a *Activity) Duration() time.Duration {
	return time.Duration(a.DurationMin) * time.Minute
}

// HasTag reports whether the activity carries the tag
func (a *Activity) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasNote reports whether a note with the given prefix was attached
func (a *Activity) HasNote(prefix string) bool {
	for _, n := range a.Notes {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// Derive returns a modified copy of the activity. Slices are copied so that
// the template stays untouched.
func (a *Activity) Derive(modify func(*Activity)) *Activity {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	c.Notes = append([]string(nil), a.Notes...)
	c.VibeTags = append([]string(nil), a.VibeTags...)
	c.WeatherBlockers = append([]string(nil), a.WeatherBlockers...)
	c.FixedTimes = append([]FixedTime(nil), a.FixedTimes...)
	if c.DerivedFrom == "" {
		c.DerivedFrom = a.ID
	}
	if modify != nil {
		modify(&c)
	}
	return &c
}

// TemplateID returns the ID of the template the activity was derived from, or its own ID
func (a *Activity) TemplateID() string {
	if a.DerivedFrom != "" {
		return a.DerivedFrom
	}
	return a.ID
}
