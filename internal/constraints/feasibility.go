package constraints

import (
	"context"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/timegrid"
)

// Reason explains why a slot was rejected. The empty reason means feasible.
type Reason string

const (
	OK            Reason = ""
	ReasonAge     Reason = "age"
	ReasonWindow  Reason = "opening_window"
	ReasonFixed   Reason = "fixed_time"
	ReasonDay     Reason = "day_window"
	ReasonWeather Reason = "weather"
	ReasonEnergy  Reason = "energy"
	ReasonOverlap Reason = "overlap"
)

// WeatherChecker decides whether forecast weather allows an activity at start.
// Implementations fail open: an unknown forecast is suitable.
type WeatherChecker interface {
	IsWeatherSuitable(ctx context.Context, act *models.Activity, start time.Time) bool
}

// WeatherFunc adapts a function to WeatherChecker
type WeatherFunc func(ctx context.Context, act *models.Activity, start time.Time) bool

// IsWeatherSuitable calls f
func (f WeatherFunc) IsWeatherSuitable(ctx context.Context, act *models.Activity, start time.Time) bool {
	return f(ctx, act, start)
}

// Checker evaluates hard constraints for a proposed booking
type Checker struct {
	Weather            WeatherChecker
	UseHardConstraints bool
	UseWeather         bool
	UseEnergy          bool
}

// NewChecker creates a checker with every constraint enabled
func NewChecker(weather WeatherChecker) *Checker {
	return &Checker{Weather: weather, UseHardConstraints: true, UseWeather: weather != nil}
}

// Options narrows a check
type Options struct {
	// Attendees restricts the age check to the members funding an extreme accommodation
	Attendees []string
	// Exclude lists events ignored by the overlap check (e.g. the event being moved)
	Exclude []*models.PlanEvent
}

// Intrinsic runs every check that does not depend on other bookings: age,
// time window, day window, energy and weather. Weather runs last since it may
// reach the network. day is the plan date; start may fall after its midnight.
func (c *Checker) Intrinsic(ctx context.Context, client *models.Client, act *models.Activity, day, start time.Time, opts Options) Reason {
	if !DayWindowOK(client, act, day, start) {
		return ReasonDay
	}
	if act.IsAnchor() {
		if !timegrid.FixedStartsOn(act, day, start) {
			return ReasonFixed
		}
	} else if !OpenWindowOK(act, day, start) {
		return ReasonWindow
	}
	if !c.UseHardConstraints {
		return OK
	}
	if !AgeOK(client, act, opts.Attendees) {
		return ReasonAge
	}
	if c.UseEnergy && !scoring.HasSufficientEnergy(client, act) {
		return ReasonEnergy
	}
	if c.UseWeather && c.Weather != nil && len(act.WeatherBlockers) > 0 {
		if !c.Weather.IsWeatherSuitable(ctx, act, start) {
			return ReasonWeather
		}
	}
	return OK
}

// HardFeasible is Intrinsic plus the no-overlap check against the day's bookings
func (c *Checker) HardFeasible(ctx context.Context, client *models.Client, act *models.Activity, start time.Time, plan *models.PlanDay, opts Options) Reason {
	if !NoOverlap(plan, act, start, opts.Exclude...) {
		return ReasonOverlap
	}
	return c.Intrinsic(ctx, client, act, plan.Date, start, opts)
}

// AgeOK checks the youngest relevant member against the activity's age range.
// With attendees set only their ages count.
func AgeOK(client *models.Client, act *models.Activity, attendees []string) bool {
	age := client.MinAge()
	if len(attendees) > 0 {
		age = client.MinAgeOf(attendees)
	}
	if act.AgeMax == 0 && act.AgeMin == 0 {
		return true
	}
	return age >= act.AgeMin && age <= act.AgeMax
}

// OpenWindowOK reports whether the activity fits its opening window on day
func OpenWindowOK(act *models.Activity, day, start time.Time) bool {
	w, ok := act.OpeningHours.WindowFor(day)
	if !ok {
		return false
	}
	return w.Contains(models.MinutesSinceMidnight(day, start), act.DurationMin)
}

// DayWindowOK reports whether the booking stays inside the client's daily window
func DayWindowOK(client *models.Client, act *models.Activity, day, start time.Time) bool {
	return client.DayWindow().Contains(models.MinutesSinceMidnight(day, start), act.DurationMin)
}

// NoOverlap reports whether act at start overlaps no booked event other than those excluded
func NoOverlap(plan *models.PlanDay, act *models.Activity, start time.Time, exclude ...*models.PlanEvent) bool {
	return plan.IsFree(start, start.Add(act.Duration()), exclude...)
}
