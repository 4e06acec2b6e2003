package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Unplaced reasons reported on a PlanDay
const (
	ReasonNoFeasibleSlot   = "no_feasible_slot"
	ReasonAnchorRolledBack = "anchor_rolled_back"
	ReasonMealNotPlaced    = "meal_not_placed"
	ReasonBudget           = "budget"
)

// PlanEvent is an activity booked at a concrete time. End is always
// Start plus the activity duration.
type PlanEvent struct {
	ID        string    `json:"id"`
	Activity  *Activity `json:"activity"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Notes     []string  `json:"notes,omitempty"`
	Attendees []string  `json:"attendees,omitempty"` // members funded by credits, empty = whole party
}

// NewPlanEvent books an activity at start
func NewPlanEvent(act *Activity, start time.Time) *PlanEvent {
	return &PlanEvent{
		ID:       uuid.NewString(),
		Activity: act,
		Start:    start,
		End:      start.Add(act.Duration()),
	}
}

// MoveTo reschedules the event in place, keeping its identity
func (e *PlanEvent) MoveTo(start time.Time) {
	e.Start = start
	e.End = start.Add(e.Activity.Duration())
}

// Replace swaps the booked activity (e.g. for a shortened variant) and reschedules the event
func (e *PlanEvent) Replace(act *Activity, start time.Time) {
	e.Activity = act
	e.MoveTo(start)
}

// OverlapMinutes returns how many minutes [start, end) shares with the event
func (e *PlanEvent) OverlapMinutes(start, end time.Time) int {
	lo := e.Start
	if start.After(lo) {
		lo = start
	}
	hi := e.End
	if end.Before(hi) {
		hi = end
	}
	if !hi.After(lo) {
		return 0
	}
	return int(hi.Sub(lo) / time.Minute)
}

// Overlaps reports whether [start, end) intersects the event
func (e *PlanEvent) Overlaps(start, end time.Time) bool {
	return start.Before(e.End) && e.Start.Before(end)
}

// AddNote attaches a planner note to the event
func (e *PlanEvent) AddNote(note string) {
	e.Notes = append(e.Notes, note)
}

// Unplaced records an activity the planner could not fit into a day
type Unplaced struct {
	ActivityID string `json:"activity_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// PlanDay is one day of the itinerary. Events never overlap and are kept ordered by start.
type PlanDay struct {
	Date      time.Time      `json:"date"`
	Events    []*PlanEvent   `json:"events"`
	TagCounts map[string]int `json:"tag_counts"`
	Unplaced  []Unplaced     `json:"unplaced,omitempty"`
}

// NewPlanDay creates an empty plan for date
func NewPlanDay(date time.Time) *PlanDay {
	return &PlanDay{
		Date:      DateOf(date),
		TagCounts: make(map[string]int),
	}
}

// Add inserts an event keeping start order
func (d *PlanDay) Add(e *PlanEvent) {
	d.Events = append(d.Events, e)
	d.Sort()
}

// Remove drops an event by identity and reports whether it was present
func (d *PlanDay) Remove(e *PlanEvent) bool {
	for i, ev := range d.Events {
		if ev == e {
			d.Events = append(d.Events[:i], d.Events[i+1:]...)
			return true
		}
	}
	return false
}

// Sort orders events by start time
func (d *PlanDay) Sort() {
	sort.SliceStable(d.Events, func(i, j int) bool {
		return d.Events[i].Start.Before(d.Events[j].Start)
	})
}

// Blocking returns the events overlapping [start, end), skipping any listed in exclude
func (d *PlanDay) Blocking(start, end time.Time, exclude ...*PlanEvent) []*PlanEvent {
	var out []*PlanEvent
	for _, ev := range d.Events {
		if containsEvent(exclude, ev) {
			continue
		}
		if ev.Overlaps(start, end) {
			out = append(out, ev)
		}
	}
	return out
}

// IsFree reports whether [start, end) overlaps no event other than those excluded
func (d *PlanDay) IsFree(start, end time.Time, exclude ...*PlanEvent) bool {
	return len(d.Blocking(start, end, exclude...)) == 0
}

// TotalCost sums the cost of every booked event
func (d *PlanDay) TotalCost() float64 {
	total := 0.0
	for _, ev := range d.Events {
		total += ev.Activity.Cost
	}
	return total
}

// BookedMinutes sums the duration of every booked event
func (d *PlanDay) BookedMinutes() int {
	total := 0
	for _, ev := range d.Events {
		total += ev.Activity.DurationMin
	}
	return total
}

// HasActivity reports whether the activity (or a variant derived from it) is booked
func (d *PlanDay) HasActivity(templateID string) bool {
	for _, ev := range d.Events {
		if ev.Activity.TemplateID() == templateID {
			return true
		}
	}
	return false
}

// LastEventEnd returns the end of the latest event, or the zero time when empty
func (d *PlanDay) LastEventEnd() time.Time {
	var last time.Time
	for _, ev := range d.Events {
		if ev.End.After(last) {
			last = ev.End
		}
	}
	return last
}

// CountTags adds the activity's tags to the day's tag counts
func (d *PlanDay) CountTags(act *Activity) {
	for _, t := range act.Tags {
		d.TagCounts[t]++
	}
}

// MarkUnplaced records an activity the planner gave up on
func (d *PlanDay) MarkUnplaced(act *Activity, reason string) {
	d.Unplaced = append(d.Unplaced, Unplaced{ActivityID: act.TemplateID(), Name: act.Name, Reason: reason})
}

func containsEvent(list []*PlanEvent, e *PlanEvent) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
