package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/planner"
)

var day = time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)

func newClient(weights ...map[string]float64) *models.Client {
	names := []string{"ana", "ben", "cat"}
	c := &models.Client{
		ID:          "c1",
		Members:     make(map[string]*models.PartyMember),
		BudgetTotal: 100,
		TripStart:   day,
		TripEnd:     day,
		DayStartMin: 8 * 60,
		DayEndMin:   22 * 60,
		MealPrefs: map[string]models.MealPreference{
			models.MealLunch:  {WindowStartMin: 12 * 60, WindowEndMin: 14 * 60},
			models.MealDinner: {WindowStartMin: 17 * 60, WindowEndMin: 20 * 60},
		},
	}
	for i, w := range weights {
		c.Members[names[i]] = &models.PartyMember{Name: names[i], Age: 30, InterestWeights: w}
	}
	return models.NewClient(c)
}

func activity(id string, dur int, tags ...string) *models.Activity {
	w := models.Window{OpenMin: 0, CloseMin: models.MinutesPerDay}
	return &models.Activity{
		ID:           id,
		Name:         id,
		Category:     "sightseeing",
		Tags:         tags,
		DurationMin:  dur,
		OpeningHours: models.OpeningHours{Daily: &w},
	}
}

func book(plan *models.PlanDay, act *models.Activity, startMin int) *models.PlanEvent {
	ev := models.NewPlanEvent(act, models.At(day, startMin))
	plan.Add(ev)
	plan.CountTags(act)
	return ev
}

func kinds(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind+":"+v.ActivityID)
	}
	return out
}

func TestValidate(t *testing.T) {
	client := newClient(map[string]float64{}, map[string]float64{})
	client.Members["ben"].Age = 8

	museum := activity("museum", 90, "museum")
	bar := activity("bar", 60, "nightlife")
	bar.AgeMin, bar.AgeMax = 18, 99
	show := activity("show", 60, "music")
	show.FixedTimes = []models.FixedTime{{StartMin: 21 * 60}}
	garden := activity("garden", 60, "nature")
	garden.OpeningHours.Daily = &models.Window{OpenMin: 9 * 60, CloseMin: 12 * 60}

	plan := models.NewPlanDay(day)
	book(plan, museum, 10*60)
	book(plan, bar, 11*60)
	book(plan, garden, 13*60)
	book(plan, show, 21*60+30)

	assert.ElementsMatch(t, []string{
		"overlap:museum",
		"age:bar",
		"opening_hours:garden",
		"day_window:show",
		"fixed_time:show",
	}, kinds(Validate(client, plan)))
}

func TestValidateCleanDay(t *testing.T) {
	client := newClient(map[string]float64{"museum": 5})
	plan := models.NewPlanDay(day)
	book(plan, activity("museum", 90, "museum"), 10*60)
	show := activity("show", 60, "music")
	show.FixedTimes = []models.FixedTime{{Date: day.Format(models.DateLayout), StartMin: 19 * 60}}
	book(plan, show, 19*60)

	assert.Empty(t, Validate(client, plan))
	r := EvaluateDay(client, plan)
	assert.Equal(t, 1.0, r.Hard)
}

func TestMeasure(t *testing.T) {
	client := newClient(
		map[string]float64{"museum": 10, "park": 8},
		map[string]float64{"museum": 0, "park": 2},
	)
	museum := activity("museum", 120, "museum")
	museum.Cost = 80
	park := activity("park", 60, "park")
	park.Cost = 50
	lunch := activity("meal-break:lunch", 60, models.CategoryFood, models.MealLunch)
	lunch.Category = models.CategoryFood

	plan := models.NewPlanDay(day)
	book(plan, museum, 9*60)
	ev := book(plan, park, 11*60)
	ev.Attendees = []string{"ana"}
	book(plan, lunch, 15*60)

	m := Measure(client, plan)
	assert.Equal(t, 3, m.Events)
	assert.Equal(t, 3, m.DistinctEvents)
	assert.InDelta(t, 10.0, m.InterestSum, 1e-9)
	assert.InDelta(t, 130.0, m.TotalCost, 1e-9)
	assert.InDelta(t, 30.0, m.BudgetOverrun, 1e-9)
	assert.InDelta(t, 240.0/840.0, m.Utilization, 1e-9)
	assert.Equal(t, 1, m.MealEvents)
	assert.Equal(t, 1, m.MealWindowViolations)
	assert.InDelta(t, 1320.0/840.0-1.5, m.EngagementGini, 1e-9)
	assert.InDelta(t, 1.0, m.TagDiversity, 1e-9)

	r := EvaluateDay(client, plan)
	assert.Equal(t, 1.0, r.Hard)
	assert.Greater(t, r.Soft, 0.0)
	assert.Less(t, r.Soft, 1.0)
	assert.InDelta(t, HardWeight*r.Hard+SoftWeight*r.Soft, r.Composite, 1e-9)
}

func TestHardScore(t *testing.T) {
	assert.Equal(t, 1.0, HardScore(nil, 0))
	assert.Equal(t, 0.5, HardScore(make([]Violation, 2), 4))
	assert.Equal(t, 0.0, HardScore(make([]Violation, 5), 4))
	assert.Equal(t, 0.0, HardScore(make([]Violation, 1), 0))
}

func TestDayPenalty(t *testing.T) {
	client := newClient(
		map[string]float64{"music": 9},
		map[string]float64{},
		map[string]float64{},
	)
	concert := activity("concert", 150, "music")
	concert.FixedTimes = []models.FixedTime{{StartMin: 17 * 60}}
	dinner := activity("meal-break:dinner", 60, models.CategoryFood, models.MealDinner)
	dinner.Category = models.CategoryFood

	plan := models.NewPlanDay(day)
	book(plan, concert, 17*60)
	ev := book(plan, dinner, 18*60)
	ev.AddNote("note:no restaurant found nearby")

	p := DayPenalty(client, plan)
	assert.Equal(t, 0, p.Window)
	assert.Equal(t, 1, p.MealAnchor)
	assert.Equal(t, 1, p.Satisfaction)
	assert.Equal(t, 0, p.MealWindow)
	assert.Equal(t, 1, p.Adjusted)
	assert.Zero(t, p.Budget)
	assert.InDelta(t, WeightMealAnchor+WeightSatisfaction+WeightAdjusted, p.Total, 1e-9)
}

func TestConfigGrid(t *testing.T) {
	grid := ConfigGrid(planner.DefaultConfig())
	require.Len(t, grid, 16)

	names := make(map[string]bool)
	for _, cfg := range grid {
		assert.False(t, cfg.UseWeather)
		assert.True(t, cfg.UseHardConstraints)
		names[ConfigName(cfg)] = true
	}
	assert.Len(t, names, 16)
}

func TestCompareRanksConfigurations(t *testing.T) {
	mk := func() *models.Client {
		c := newClient(map[string]float64{"museum": 9, "park": 6}, map[string]float64{"park": 7})
		c.TripEnd = day.AddDate(0, 0, 1)
		return models.NewClient(c)
	}
	acts := []*models.Activity{
		activity("museum", 120, "museum"),
		activity("park", 90, "park"),
		activity("gallery", 60, "museum"),
	}

	results, err := Compare(context.Background(), mk, acts, ConfigGrid(planner.DefaultConfig()), nil)
	require.NoError(t, err)
	require.Len(t, results, 16)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].AvgPenalty, results[i].AvgPenalty)
	}
	for _, r := range results {
		assert.Len(t, r.Days, 2)
		assert.NotEmpty(t, r.Name)
	}
}

func TestCompareFailsOnInvalidTrip(t *testing.T) {
	mk := func() *models.Client {
		c := newClient(map[string]float64{})
		c.TripEnd = day.AddDate(0, 0, -1)
		return c
	}
	_, err := Compare(context.Background(), mk, nil, ConfigGrid(planner.DefaultConfig())[:2], nil)
	assert.ErrorIs(t, err, planner.ErrInvalidTrip)
}
