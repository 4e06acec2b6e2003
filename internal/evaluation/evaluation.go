// Package evaluation grades finished itineraries: hard rule violations, soft
// quality metrics and a single composite score for comparing planner settings.
package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/stats"
)

// Violation kinds
const (
	KindOverlap      = "overlap"
	KindDayWindow    = "day_window"
	KindAge          = "age"
	KindOpeningHours = "opening_hours"
	KindFixedTime    = "fixed_time"
)

// Composite weights
const (
	HardWeight = 0.6
	SoftWeight = 0.4
)

// Violation is a broken hard rule in a planned day
type Violation struct {
	Kind       string `json:"kind"`
	ActivityID string `json:"activity_id"`
	Detail     string `json:"detail"`
}

// Metrics are the soft quality measures of one day
type Metrics struct {
	Events               int     `json:"events"`
	InterestSum          float64 `json:"interest_sum"` // party-average interest summed over events
	TotalCost            float64 `json:"total_cost"`
	Utilization          float64 `json:"utilization"` // booked share of the day window
	DistinctEvents       int     `json:"distinct_events"`
	BudgetOverrun        float64 `json:"budget_overrun"`
	MealWindowViolations int     `json:"meal_window_violations"`
	MealEvents           int     `json:"meal_events"`
	EngagementGini       float64 `json:"engagement_gini"`
	TagDiversity         float64 `json:"tag_diversity"` // normalized tag entropy
	Unplaced             int     `json:"unplaced"`
}

// DayReport grades one planned day
type DayReport struct {
	Date       string      `json:"date"`
	Violations []Violation `json:"violations,omitempty"`
	Metrics    Metrics     `json:"metrics"`
	Hard       float64     `json:"hard"`
	Soft       float64     `json:"soft"`
	Composite  float64     `json:"composite"`
}

// TripReport grades a whole itinerary
type TripReport struct {
	ClientID  string      `json:"client_id"`
	Days      []DayReport `json:"days"`
	Composite float64     `json:"composite"` // mean over days
}

// Validate lists every hard rule the day breaks: overlapping events, events
// outside the client's day window, age limits for the attending members,
// opening hours for flexible activities and declared times for anchors.
func Validate(client *models.Client, day *models.PlanDay) []Violation {
	var out []Violation
	for i, ev := range day.Events {
		act := ev.Activity
		for _, other := range day.Events[i+1:] {
			if ev.Overlaps(other.Start, other.End) {
				out = append(out, Violation{KindOverlap, act.ID, "overlaps " + other.Activity.ID})
			}
		}
		if !constraints.DayWindowOK(client, act, day.Date, ev.Start) {
			out = append(out, Violation{KindDayWindow, act.ID, window(day, ev)})
		}
		if !constraints.AgeOK(client, act, ev.Attendees) {
			out = append(out, Violation{KindAge, act.ID, fmt.Sprintf("ages %d-%d", act.AgeMin, act.AgeMax)})
		}
		if act.IsAnchor() {
			if !onFixedTime(act, day, ev) {
				out = append(out, Violation{KindFixedTime, act.ID, window(day, ev)})
			}
		} else if !constraints.OpenWindowOK(act, day.Date, ev.Start) {
			out = append(out, Violation{KindOpeningHours, act.ID, window(day, ev)})
		}
	}
	return out
}

func onFixedTime(act *models.Activity, day *models.PlanDay, ev *models.PlanEvent) bool {
	for _, ft := range act.FixedTimes {
		if ft.AppliesTo(day.Date) && models.At(day.Date, ft.StartMin).Equal(ev.Start) {
			return true
		}
	}
	return false
}

func window(day *models.PlanDay, ev *models.PlanEvent) string {
	start := models.MinutesSinceMidnight(day.Date, ev.Start)
	return fmt.Sprintf("%s+%dm", models.FormatClock(start), ev.Activity.DurationMin)
}

// Measure computes the soft metrics of a day
func Measure(client *models.Client, day *models.PlanDay) Metrics {
	m := Metrics{
		Events:    len(day.Events),
		TotalCost: day.TotalCost(),
		Unplaced:  len(day.Unplaced),
	}

	engagement := make(map[string]float64, client.Size())
	for _, name := range client.MemberNames() {
		engagement[name] = 0
	}
	distinct := make(map[string]bool)
	for _, ev := range day.Events {
		act := ev.Activity
		distinct[act.TemplateID()] = true
		m.InterestSum += partyInterest(client, act)

		attendees := ev.Attendees
		if len(attendees) == 0 {
			attendees = client.MemberNames()
		}
		for _, name := range attendees {
			engagement[name] += float64(act.DurationMin)
		}

		if meal, ok := mealOf(act); ok {
			m.MealEvents++
			pref, ok := client.MealPrefs[meal]
			start := models.MinutesSinceMidnight(day.Date, ev.Start)
			if ok && !pref.Window().Contains(start, act.DurationMin) {
				m.MealWindowViolations++
			}
		}
	}
	m.DistinctEvents = len(distinct)

	if total := client.TotalDayDuration(); total > 0 {
		m.Utilization = math.Min(1, float64(day.BookedMinutes())/float64(total))
	}
	m.BudgetOverrun = math.Max(0, m.TotalCost-scoring.SoftCapPerDay(client))

	values := make([]float64, 0, len(engagement))
	for _, v := range engagement {
		values = append(values, v)
	}
	m.EngagementGini = stats.Gini(values)

	counts := make([]float64, 0, len(day.TagCounts))
	for _, n := range day.TagCounts {
		counts = append(counts, float64(n))
	}
	m.TagDiversity = stats.NormalizedEntropy(counts)
	return m
}

// partyInterest is the members' average interest in act on a 0-10 scale
func partyInterest(client *models.Client, act *models.Activity) float64 {
	if client.Size() == 0 || len(act.Tags) == 0 {
		return 0
	}
	per := make([]float64, 0, client.Size())
	for _, name := range client.MemberNames() {
		per = append(per, scoring.MemberInterest(client.Members[name], act)/float64(len(act.Tags)))
	}
	return stats.Mean(per)
}

// mealOf names the meal a food event stands for, from its tags or template ID
func mealOf(act *models.Activity) (string, bool) {
	if !act.IsFood() {
		return "", false
	}
	id := strings.ToLower(act.TemplateID())
	for _, meal := range []string{models.MealBreakfast, models.MealLunch, models.MealDinner} {
		if act.HasTag(meal) || strings.Contains(id, meal) {
			return meal, true
		}
	}
	return "", false
}

// HardScore is 1 for a clean day, dropping with the share of violations per event
func HardScore(violations []Violation, events int) float64 {
	if len(violations) == 0 {
		return 1
	}
	if events == 0 {
		return 0
	}
	return math.Max(0, 1-float64(len(violations))/float64(events))
}

// SoftScore folds the metrics into 0..1 as the mean of interest, utilization,
// budget adherence, engagement equality, tag diversity and meal timing
func SoftScore(client *models.Client, m Metrics) float64 {
	interest := 0.0
	if m.Events > 0 {
		interest = math.Min(1, m.InterestSum/float64(m.Events)/scoring.MaxInterest)
	}

	budget := 1.0
	if m.BudgetOverrun > 0 {
		budget = 0
		if dailyCap := scoring.SoftCapPerDay(client); dailyCap > 0 {
			budget = math.Max(0, 1-m.BudgetOverrun/dailyCap)
		}
	}

	meals := 1.0
	if m.MealEvents > 0 {
		meals = 1 - float64(m.MealWindowViolations)/float64(m.MealEvents)
	}

	return stats.Mean([]float64{
		interest,
		m.Utilization,
		budget,
		1 - m.EngagementGini,
		m.TagDiversity,
		meals,
	})
}

// EvaluateDay grades one day
func EvaluateDay(client *models.Client, day *models.PlanDay) DayReport {
	violations := Validate(client, day)
	metrics := Measure(client, day)
	r := DayReport{
		Date:       day.Date.Format(models.DateLayout),
		Violations: violations,
		Metrics:    metrics,
		Hard:       HardScore(violations, len(day.Events)),
		Soft:       SoftScore(client, metrics),
	}
	r.Composite = HardWeight*r.Hard + SoftWeight*r.Soft
	return r
}

// EvaluateTrip grades every day of an itinerary
func EvaluateTrip(client *models.Client, days []*models.PlanDay) TripReport {
	report := TripReport{ClientID: client.ID}
	composites := make([]float64, 0, len(days))
	for _, d := range days {
		r := EvaluateDay(client, d)
		report.Days = append(report.Days, r)
		composites = append(composites, r.Composite)
	}
	sort.Slice(report.Days, func(i, j int) bool { return report.Days[i].Date < report.Days[j].Date })
	report.Composite = stats.Mean(composites)
	return report
}
