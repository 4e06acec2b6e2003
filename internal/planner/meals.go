package planner

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/places"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
)

// Meal planning constants
const (
	MealBufferMin      = 10 // kept free at both ends of a meal window
	MealStepMin        = 15
	DefaultMealMin     = 60
	GrabAndGoMin       = 15
	MinTravelBufferMin = 5
	MaxTravelBufferMin = 35
	TravelMinPerKm     = 12
	restaurantsPerMeal = 3
)

// Notes attached to meals moved around an anchor
const (
	NoteEatBefore       = "note:eat before event"
	NoteEatAfter        = "note:eat after event"
	NoteShortenedBefore = "note:shortened meal, eat before event"
	NoteGrabAndGo       = "note:grab-and-go before event"
	NoteGrabAndGoAfter  = "note:grab-and-go after event"
	NoteNoRestaurant    = "note:no restaurant found nearby"
)

// Meal resolution strategies reported to metrics
const (
	strategyBefore    = "before"
	strategyAfter     = "after"
	strategyShortened = "shortened"
	strategyGrabAndGo = "grab_and_go"
	strategyFailed    = "failed"
)

var defaultMealMinutes = map[string]int{
	models.MealBreakfast: 45,
	models.MealLunch:     60,
	models.MealDinner:    75,
}

// shortenedMealMinutes are tried longest first
var shortenedMealMinutes = []int{45, 30}

// TravelBuffer is the time allowed to get between two venues: 12 minutes per
// km, clamped to [5, 35]
func TravelBuffer(a, b models.Location) time.Duration {
	if a.IsZero() || b.IsZero() {
		return MinTravelBufferMin * time.Minute
	}
	m := int(math.Round(TravelMinPerKm * a.DistanceKm(b)))
	if m < MinTravelBufferMin {
		m = MinTravelBufferMin
	}
	if m > MaxTravelBufferMin {
		m = MaxTravelBufferMin
	}
	return time.Duration(m) * time.Minute
}

// MealMidpoint centres a meal inside its window, keeping buffer minutes free at
// both ends when the window allows it
func MealMidpoint(windowStart, windowEnd, duration, buffer int) int {
	span := windowEnd - windowStart
	slack := span - 2*buffer - duration
	if slack < 0 {
		if span <= duration {
			return windowStart
		}
		return windowStart + (span-duration)/2
	}
	return windowStart + buffer + slack/2
}

// mealStarts lists the minutes a meal may start at, closest to the midpoint first
func mealStarts(w models.Window, duration int) []int {
	mid := MealMidpoint(w.OpenMin, w.CloseMin, duration, MealBufferMin)
	seen := map[int]bool{mid: true}
	mins := []int{mid}
	for m := w.OpenMin; m+duration <= w.CloseMin; m += MealStepMin {
		if !seen[m] {
			seen[m] = true
			mins = append(mins, m)
		}
	}
	sort.SliceStable(mins, func(i, j int) bool {
		di, dj := abs(mins[i]-mid), abs(mins[j]-mid)
		if di != dj {
			return di < dj
		}
		return mins[i] < mins[j]
	})
	return mins
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func mealDuration(meal string, pref models.MealPreference) int {
	if pref.DurationMin > 0 {
		return pref.DurationMin
	}
	if d, ok := defaultMealMinutes[meal]; ok {
		return d
	}
	return DefaultMealMin
}

// orderedMeals returns meal names by window start
func orderedMeals(prefs map[string]models.MealPreference) []string {
	names := make([]string, 0, len(prefs))
	for name := range prefs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := prefs[names[i]].WindowStartMin, prefs[names[j]].WindowStartMin
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})
	return names
}

// seedMeals books each preferred meal before anything else. A provided food
// activity is preferred, then nearby restaurants, then a plain meal break.
func (r *dayRun) seedMeals(acts []*models.Activity) {
	required, avoid := places.DeriveDietTerms(r.client.Dietary)

	for _, meal := range orderedMeals(r.client.MealPrefs) {
		pref := r.client.MealPrefs[meal]
		dur := mealDuration(meal, pref)
		w := pref.Window()

		if r.placeMealFrom(w, r.providedMeals(acts, pref, avoid)) {
			continue
		}
		if r.placeMealFrom(w, r.restaurantMeals(meal, pref, dur, required, avoid)) {
			continue
		}
		fallback := fallbackMeal(r.client, meal, dur)
		if r.placeMealFrom(w, []*models.Activity{fallback}) {
			continue
		}
		r.trace().Str("meal", meal).Str("reason", models.ReasonMealNotPlaced).Msg("meal not placed")
		r.plan.MarkUnplaced(fallback, models.ReasonMealNotPlaced)
		observability.RecordUnplaced(models.ReasonMealNotPlaced)
	}
}

// providedMeals returns the caller's food activities usable for a meal, best first
func (r *dayRun) providedMeals(acts []*models.Activity, pref models.MealPreference, avoid []string) []*models.Activity {
	words := places.ExpandAvoid(avoid)
	var out []*models.Activity
	for _, a := range acts {
		if !a.IsFood() || a.IsAnchor() || r.plan.HasActivity(a.ID) {
			continue
		}
		if pref.MaxAverageCost > 0 && a.Cost > pref.MaxAverageCost {
			continue
		}
		if mentionsAny(a, words) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := scoring.BaseValue(r.client, out[i]), scoring.BaseValue(r.client, out[j])
		if vi != vj {
			return vi > vj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func mentionsAny(a *models.Activity, words []string) bool {
	text := strings.ToLower(a.Name + " " + a.Venue + " " + strings.Join(a.Tags, " "))
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// restaurantMeals asks the food finder for restaurants near the home base
func (r *dayRun) restaurantMeals(meal string, pref models.MealPreference, dur int, required, avoid []string) []*models.Activity {
	if r.p.food == nil || r.client.HomeBase.IsZero() {
		return nil
	}
	found := r.p.food.FindNearbyFood(r.ctx, places.FoodQuery{
		Location:       r.client.HomeBase,
		Cuisines:       pref.Cuisines,
		Required:       required,
		Avoid:          avoid,
		MaxAverageCost: pref.MaxAverageCost,
	})
	if len(found) > restaurantsPerMeal {
		found = found[:restaurantsPerMeal]
	}
	out := make([]*models.Activity, 0, len(found))
	for _, rest := range found {
		a := rest.AsActivity(meal, dur)
		if a.City == "" {
			a.City = r.client.HomeBase.City
		}
		out = append(out, a)
	}
	return out
}

// fallbackMeal is booked when no restaurant could be found
func fallbackMeal(client *models.Client, meal string, dur int) *models.Activity {
	daily := models.Window{OpenMin: 0, CloseMin: models.MinutesPerDay}
	return &models.Activity{
		ID:           "meal-break:" + meal,
		Name:         "Meal break (" + meal + ")",
		Category:     models.CategoryFood,
		Tags:         []string{models.CategoryFood, meal},
		City:         client.HomeBase.City,
		Location:     client.HomeBase,
		DurationMin:  dur,
		OpeningHours: models.OpeningHours{Daily: &daily},
		Notes:        []string{NoteNoRestaurant},
	}
}

// placeMealFrom books the first candidate that fits the meal window
func (r *dayRun) placeMealFrom(w models.Window, cands []*models.Activity) bool {
	for _, a := range cands {
		for _, m := range mealStarts(w, a.DurationMin) {
			start := models.At(r.plan.Date, m)
			if r.p.checker.HardFeasible(r.ctx, r.client, a, start, r.plan, constraints.Options{}) != constraints.OK {
				continue
			}
			ev := models.NewPlanEvent(a, start)
			r.plan.Add(ev)
			r.meals[ev] = w
			r.commit(ev, nil, observability.PhaseMeal)
			return true
		}
	}
	return false
}

// mealSnapshot restores a meal event after a failed anchor start
type mealSnapshot struct {
	ev    *models.PlanEvent
	act   *models.Activity
	start time.Time
	notes []string
}

func (r *dayRun) snapshot(evs []*models.PlanEvent) []mealSnapshot {
	out := make([]mealSnapshot, len(evs))
	for i, ev := range evs {
		out[i] = mealSnapshot{ev: ev, act: ev.Activity, start: ev.Start, notes: append([]string(nil), ev.Notes...)}
	}
	return out
}

func (r *dayRun) restore(snaps []mealSnapshot) {
	for _, s := range snaps {
		r.resize(s.ev, s.act, s.start)
		s.ev.Notes = s.notes
	}
	r.plan.Sort()
}

// resolveMealConflict moves a meal out of the way of an anchor already in the
// plan. In order: end the meal a travel buffer before the anchor, start it a
// travel buffer after, shorten it and retry the first option, or turn it into a
// fixed grab-and-go stop right next to the anchor. Moved meals stay inside the
// client's day and never overlap other events.
func (r *dayRun) resolveMealConflict(meal, anchor *models.PlanEvent) bool {
	act := meal.Activity
	buf := TravelBuffer(act.Location, anchor.Activity.Location)

	if s := anchor.Start.Add(-buf - act.Duration()); r.mealFits(meal, act, s) {
		r.moveMeal(meal, act, s, NoteEatBefore, strategyBefore)
		return true
	}
	if s := anchor.End.Add(buf); r.mealFits(meal, act, s) {
		r.moveMeal(meal, act, s, NoteEatAfter, strategyAfter)
		return true
	}
	for _, m := range shortenedMealMinutes {
		if m >= act.DurationMin {
			continue
		}
		short := act.Derive(func(a *models.Activity) { a.DurationMin = m })
		if s := anchor.Start.Add(-buf - short.Duration()); r.mealFits(meal, short, s) {
			r.moveMeal(meal, short, s, NoteShortenedBefore, strategyShortened)
			return true
		}
	}

	grabStarts := []struct {
		at   time.Time
		note string
	}{
		{anchor.Start.Add(-GrabAndGoMin * time.Minute), NoteGrabAndGo},
		{anchor.End, NoteGrabAndGoAfter},
	}
	for _, g := range grabStarts {
		grab := r.grabAndGo(act, g.at)
		if r.mealFits(meal, grab, g.at) {
			r.moveMeal(meal, grab, g.at, g.note, strategyGrabAndGo)
			return true
		}
	}

	observability.RecordMealResolution(strategyFailed)
	return false
}

// grabAndGo derives a short fixed-time variant of a meal
func (r *dayRun) grabAndGo(act *models.Activity, at time.Time) *models.Activity {
	return act.Derive(func(a *models.Activity) {
		a.Name = "Grab-and-go: " + a.Name
		a.DurationMin = GrabAndGoMin
		a.FixedTimes = []models.FixedTime{{
			Date:     r.plan.Date.Format(models.DateLayout),
			StartMin: models.MinutesSinceMidnight(r.plan.Date, at),
		}}
	})
}

func (r *dayRun) mealFits(meal *models.PlanEvent, act *models.Activity, start time.Time) bool {
	return constraints.NoOverlap(r.plan, act, start, meal) &&
		constraints.DayWindowOK(r.client, act, r.plan.Date, start)
}

func (r *dayRun) moveMeal(meal *models.PlanEvent, act *models.Activity, start time.Time, note, strategy string) {
	noted := act.Derive(func(a *models.Activity) { a.Notes = append(a.Notes, note) })
	r.resize(meal, noted, start)
	meal.AddNote(note)
	r.plan.Sort()
	observability.RecordMealResolution(strategy)
	r.trace().Str("activity_id", act.ID).Time("start", start).Str("note", note).Msg("meal moved for anchor")
}
