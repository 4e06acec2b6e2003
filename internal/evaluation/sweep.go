package evaluation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/planner"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/stats"
)

// Penalty weights, lower totals are better
const (
	WeightWindow       = 15.0
	WeightMealAnchor   = 20.0
	WeightSatisfaction = 10.0
	WeightBudget       = 0.05 // per currency unit over the daily cap
	WeightMealWindow   = 10.0
	WeightAdjusted     = 5.0
)

// Penalty counts soft rule breaks in a day
type Penalty struct {
	Window       int     `json:"window"`       // events outside the day window
	MealAnchor   int     `json:"meal_anchor"`  // meals overlapping an anchor
	Satisfaction int     `json:"satisfaction"` // events fewer than half the party cares about
	Budget       float64 `json:"budget"`       // spend over the daily cap
	MealWindow   int     `json:"meal_window"`  // meals outside their preferred window
	Adjusted     int     `json:"adjusted"`     // events carrying planner notes
	Total        float64 `json:"total"`
}

// DayPenalty scores a day against the soft rules
func DayPenalty(client *models.Client, day *models.PlanDay) Penalty {
	var p Penalty
	var anchors []*models.PlanEvent
	for _, ev := range day.Events {
		if ev.Activity.IsAnchor() && !ev.Activity.IsFood() {
			anchors = append(anchors, ev)
		}
	}

	for _, ev := range day.Events {
		act := ev.Activity
		if !constraints.DayWindowOK(client, act, day.Date, ev.Start) {
			p.Window++
		}
		if meal, ok := mealOf(act); ok {
			for _, a := range anchors {
				if a.Overlaps(ev.Start, ev.End) {
					p.MealAnchor++
				}
			}
			if pref, ok := client.MealPrefs[meal]; ok {
				if !pref.Window().Contains(models.MinutesSinceMidnight(day.Date, ev.Start), act.DurationMin) {
					p.MealWindow++
				}
			}
		}
		if !act.IsFood() && interested(client, act)*2 < client.Size() {
			p.Satisfaction++
		}
		if len(ev.Notes) > 0 {
			p.Adjusted++
		}
	}

	if over := day.TotalCost() - scoring.SoftCapPerDay(client); over > 0 {
		p.Budget = over
	}
	p.Total = WeightWindow*float64(p.Window) +
		WeightMealAnchor*float64(p.MealAnchor) +
		WeightSatisfaction*float64(p.Satisfaction) +
		WeightBudget*p.Budget +
		WeightMealWindow*float64(p.MealWindow) +
		WeightAdjusted*float64(p.Adjusted)
	return p
}

func interested(client *models.Client, act *models.Activity) int {
	n := 0
	for _, m := range client.Members {
		if scoring.MemberInterest(m, act) > 0 {
			n++
		}
	}
	return n
}

// ConfigResult is the outcome of planning one trip under one configuration
type ConfigResult struct {
	Name       string         `json:"name"`
	Config     planner.Config `json:"config"`
	AvgPenalty float64        `json:"avg_penalty"`
	Composite  float64        `json:"composite"`
	Days       []Penalty      `json:"days"`
}

// ConfigGrid returns the sixteen combinations of the budget, meal, base plan
// and repair flags on top of base, with weather lookups off
func ConfigGrid(base planner.Config) []planner.Config {
	var out []planner.Config
	for _, budget := range []bool{true, false} {
		for _, meals := range []bool{true, false} {
			for _, basePlan := range []bool{true, false} {
				for _, repair := range []bool{true, false} {
					cfg := base
					cfg.UseWeather = false
					cfg.UseBudget = budget
					cfg.UseMeals = meals
					cfg.UseBasePlan = basePlan
					cfg.UseRepairB = repair
					out = append(out, cfg)
				}
			}
		}
	}
	return out
}

// ConfigName describes the toggles that distinguish grid entries
func ConfigName(cfg planner.Config) string {
	return strings.Join([]string{
		fmt.Sprintf("budget=%t", cfg.UseBudget),
		fmt.Sprintf("meals=%t", cfg.UseMeals),
		fmt.Sprintf("base_plan=%t", cfg.UseBasePlan),
		fmt.Sprintf("repair=%t", cfg.UseRepairB),
	}, " ")
}

// Compare plans the same trip under every configuration and ranks them by
// average daily penalty, best first. newClient must return a fresh client for
// each run since planning consumes its ledgers. food may be nil.
func Compare(ctx context.Context, newClient func() *models.Client, acts []*models.Activity,
	configs []planner.Config, food planner.FoodFinder) ([]ConfigResult, error) {
	results := make([]ConfigResult, len(configs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			day := planner.NewDayPlanner(cfg, nil, food, zerolog.Nop())
			client := newClient()
			days, err := planner.NewTripPlanner(day).PlanTrip(ctx, client, acts)
			if err != nil {
				return fmt.Errorf("failed to plan %s: %w", ConfigName(cfg), err)
			}

			res := ConfigResult{Name: ConfigName(cfg), Config: cfg}
			totals := make([]float64, 0, len(days))
			for _, d := range days {
				p := DayPenalty(client, d)
				res.Days = append(res.Days, p)
				totals = append(totals, p.Total)
			}
			res.AvgPenalty = stats.Mean(totals)
			res.Composite = EvaluateTrip(client, days).Composite
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AvgPenalty < results[j].AvgPenalty
	})
	return results, nil
}
