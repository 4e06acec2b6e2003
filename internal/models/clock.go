package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the length of a calendar day in minutes
const MinutesPerDay = 24 * 60

// DateLayout is the layout used for plan dates and dated fixed times
const DateLayout = "2006-01-02"

// ErrInvalidClock is returned when a time-of-day string cannot be parsed
var ErrInvalidClock = errors.New("invalid time of day")

var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM", "15:04:05"}

var dashReplacer = strings.NewReplacer(
	"\u2013", "-",
	"\u2014", "-",
	"\u2212", "-",
	"\u202f", " ",
	"\u00a0", " ",
)

// NormalizeClock replaces unicode dashes and spaces with their ASCII forms and trims the value
func NormalizeClock(s string) string {
	s = dashReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseClock parses "HH:MM", "H:MM AM" and similar forms into minutes from midnight
func ParseClock(s string) (int, error) {
	v := strings.ToUpper(NormalizeClock(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidClock)
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// FormatClock renders minutes from midnight as HH:MM, wrapping past midnight
func FormatClock(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// At returns the instant that is the given number of minutes after the start of date
func At(date time.Time, minutes int) time.Time {
	d := DateOf(date)
	return d.Add(time.Duration(minutes) * time.Minute)
}

// DateOf truncates a time to midnight in its own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MinutesSinceMidnight returns how many minutes t lies after midnight of day
func MinutesSinceMidnight(day, t time.Time) int {
	return int(t.Sub(DateOf(day)) / time.Minute)
}
