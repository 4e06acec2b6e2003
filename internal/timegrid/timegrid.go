package timegrid

import (
	"sort"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// Step sizes in minutes
const (
	StepAnchor   = 0
	StepLong     = 60
	StepMedium   = 30
	StepShort    = 15
	StepFallback = 60
)

// ChooseStep picks the candidate-start granularity for an activity.
// Anchors return 0: they are only ever placed at their declared times.
func ChooseStep(act *models.Activity) int {
	switch {
	case act.IsAnchor():
		return StepAnchor
	case act.DurationMin >= 150:
		return StepLong
	case act.DurationMin >= 60:
		return StepMedium
	default:
		return StepShort
	}
}

// CandidateStarts enumerates the start instants worth trying for an activity on date.
// Anchors yield their fixed starts for that date; flexible activities yield every
// step-aligned start whose end still fits the opening window. A closed venue yields nothing.
func CandidateStarts(act *models.Activity, date time.Time, step int) []time.Time {
	if act.IsAnchor() {
		return fixedStarts(act, date)
	}

	w, ok := act.OpeningHours.WindowFor(date)
	if !ok {
		return nil
	}
	if step <= 0 {
		step = StepFallback
	}

	var starts []time.Time
	for m := w.OpenMin; m+act.DurationMin <= w.CloseMin; m += step {
		starts = append(starts, models.At(date, m))
	}
	return starts
}

// Starts is CandidateStarts with the activity's own step
func Starts(act *models.Activity, date time.Time) []time.Time {
	return CandidateStarts(act, date, ChooseStep(act))
}

// FixedStartsOn reports whether start is one of the activity's declared fixed times on date
func FixedStartsOn(act *models.Activity, date, start time.Time) bool {
	for _, s := range fixedStarts(act, date) {
		if s.Equal(start) {
			return true
		}
	}
	return false
}

func fixedStarts(act *models.Activity, date time.Time) []time.Time {
	seen := make(map[int]bool)
	var mins []int
	for _, ft := range act.FixedTimes {
		if !ft.AppliesTo(date) || seen[ft.StartMin] {
			continue
		}
		seen[ft.StartMin] = true
		mins = append(mins, ft.StartMin)
	}
	sort.Ints(mins)

	starts := make([]time.Time, 0, len(mins))
	for _, m := range mins {
		starts = append(starts, models.At(date, m))
	}
	return starts
}
