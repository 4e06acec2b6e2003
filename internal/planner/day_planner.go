package planner

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/places"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/timegrid"
)

// FoodFinder looks up restaurants for meal seeding. It never fails: an
// unreachable service yields no restaurants.
type FoodFinder interface {
	FindNearbyFood(ctx context.Context, q places.FoodQuery) []models.Restaurant
}

// DayPlanner builds a single day's itinerary
type DayPlanner struct {
	cfg     Config
	checker *constraints.Checker
	food    FoodFinder
	log     zerolog.Logger
}

// NewDayPlanner creates a planner. weather and food may be nil.
func NewDayPlanner(cfg Config, weather constraints.WeatherChecker, food FoodFinder, log zerolog.Logger) *DayPlanner {
	checker := &constraints.Checker{
		Weather:            weather,
		UseHardConstraints: cfg.UseHardConstraints,
		UseWeather:         cfg.UseWeather && weather != nil,
		UseEnergy:          cfg.UseEnergy,
	}
	return &DayPlanner{cfg: cfg, checker: checker, food: food, log: log}
}

// Config returns the planner's configuration
func (p *DayPlanner) Config() Config {
	return p.cfg
}

// commitRecord remembers how much engagement time an event charged and to whom
type commitRecord struct {
	minutes   int
	attendees []string
}

// dayRun is the mutable state of one PlanDay call. It is never shared.
type dayRun struct {
	p        *DayPlanner
	ctx      context.Context
	client   *models.Client
	plan     *models.PlanDay
	dailyCap float64
	commits  map[*models.PlanEvent]commitRecord
	meals    map[*models.PlanEvent]models.Window // seeded meals and their meal window
	version  int
	log      zerolog.Logger
}

// PlanDay plans one date for the client: meals are seeded, anchors placed
// around them, the base plan scheduled and the remaining activities placed
// greedily. The client's ledgers are updated for every committed event.
// Problems inside the day never surface as errors; activities that could
// not be fitted are listed in PlanDay.Unplaced.
func (p *DayPlanner) PlanDay(ctx context.Context, client *models.Client, acts []*models.Activity, date time.Time) *models.PlanDay {
	started := time.Now()
	r := &dayRun{
		p:        p,
		ctx:      ctx,
		client:   client,
		plan:     models.NewPlanDay(date),
		dailyCap: scoring.SoftCapPerDay(client),
		commits:  make(map[*models.PlanEvent]commitRecord),
		meals:    make(map[*models.PlanEvent]models.Window),
		log:      p.log.With().Str("client_id", client.ID).Str("date", models.DateOf(date).Format(models.DateLayout)).Logger(),
	}

	if p.cfg.UseMeals {
		r.seedMeals(acts)
	}

	var anchors, flexible []*models.Activity
	for _, a := range acts {
		if r.plan.HasActivity(a.ID) {
			continue
		}
		if a.IsAnchor() {
			anchors = append(anchors, a)
		} else {
			flexible = append(flexible, a)
		}
	}

	sortAnchors(anchors, r.plan.Date)
	for _, a := range anchors {
		r.placeAnchor(a)
	}

	if p.cfg.UseBasePlan {
		if beam := BuildBasePlan(client, flexible, r.plan.Date, p.cfg.beamWidth()); len(beam) > 0 {
			for _, a := range beam[0].Activities {
				if r.plan.HasActivity(a.ID) {
					continue
				}
				r.placeFlexible(a, observability.PhaseBasePlan)
			}
		}
	}

	var rest []*models.Activity
	for _, a := range flexible {
		if !r.plan.HasActivity(a.ID) && !r.unplaced(a.ID) {
			rest = append(rest, a)
		}
	}
	q := newActivityQueue(client, r.plan, rest, r.version)
	for q.Len() > 0 {
		if ctx.Err() != nil {
			r.log.Warn().Err(ctx.Err()).Msg("planning cancelled, returning partial day")
			break
		}
		a := q.Next(r.version)
		if a == nil {
			break
		}
		r.placeFlexible(a, observability.PhaseGreedy)
	}

	r.plan.Sort()
	observability.ObserveDayPlan(time.Since(started))
	r.log.Debug().
		Int("events", len(r.plan.Events)).
		Int("unplaced", len(r.plan.Unplaced)).
		Float64("cost", r.plan.TotalCost()).
		Msg("day planned")
	return r.plan
}

// sortAnchors orders anchors by their earliest fixed start on date
func sortAnchors(anchors []*models.Activity, date time.Time) {
	first := func(a *models.Activity) time.Time {
		if starts := timegrid.Starts(a, date); len(starts) > 0 {
			return starts[0]
		}
		return date.AddDate(0, 0, 2)
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		fi, fj := first(anchors[i]), first(anchors[j])
		if !fi.Equal(fj) {
			return fi.Before(fj)
		}
		return anchors[i].ID < anchors[j].ID
	})
}

func (r *dayRun) unplaced(id string) bool {
	for _, u := range r.plan.Unplaced {
		if u.ActivityID == id {
			return true
		}
	}
	return false
}

func (r *dayRun) trace() *zerolog.Event {
	if r.p.cfg.DebugPrint {
		return r.log.Info()
	}
	return r.log.Debug()
}

// placeFlexible walks the activity's candidate starts until one is accepted.
// Each start is checked for intrinsic feasibility, then either placed directly
// or, when it overlaps, handed to RepairB; the budget rule decides last.
func (r *dayRun) placeFlexible(act *models.Activity, phase string) bool {
	g := scoring.GroupInterestScore(r.client, act)
	opts := constraints.Options{}
	if g.Extreme {
		opts.Attendees = g.Funded()
	}

	for _, start := range timegrid.Starts(act, r.plan.Date) {
		if reason := r.p.checker.Intrinsic(r.ctx, r.client, act, r.plan.Date, start, opts); reason != constraints.OK {
			continue
		}

		if constraints.NoOverlap(r.plan, act, start) {
			ev := models.NewPlanEvent(act, start)
			ev.Attendees = opts.Attendees
			r.plan.Add(ev)
			if !r.budgetOK(act) {
				r.plan.Remove(ev)
				continue
			}
			r.commit(ev, g.Credits, phase)
			return true
		}

		if !r.p.cfg.UseRepairB {
			continue
		}
		res, ok := r.repairB(act, start, opts)
		if !ok {
			continue
		}
		if !r.budgetOK(act) {
			res.rollback(r.plan)
			observability.RecordRepair(repairRejected)
			continue
		}
		observability.RecordRepair(repairSucceeded)
		r.commit(res.placed, g.Credits, observability.PhaseRepair)
		return true
	}

	r.trace().Str("activity_id", act.ID).Str("reason", models.ReasonNoFeasibleSlot).Msg("activity not placed")
	r.plan.MarkUnplaced(act, models.ReasonNoFeasibleSlot)
	observability.RecordUnplaced(models.ReasonNoFeasibleSlot)
	return false
}

// budgetOK applies the soft daily cap to an activity already added to the plan
func (r *dayRun) budgetOK(act *models.Activity) bool {
	if !r.p.cfg.UseBudget {
		return true
	}
	return scoring.WithinBudget(r.client, act, r.plan, r.dailyCap, true)
}

// commit charges the client's ledgers for an event already in the plan
func (r *dayRun) commit(ev *models.PlanEvent, credits map[string]int, phase string) {
	act := ev.Activity
	attendees := ev.Attendees
	if len(attendees) == 0 {
		attendees = r.client.MemberNames()
	}

	scoring.DebitCredits(r.client, credits)
	for _, name := range attendees {
		r.client.EngagementTime[name] += act.DurationMin
	}
	for _, name := range SatisfiedMembers(r.client, act) {
		r.client.TimesSatisfied[name]++
	}
	if r.p.cfg.UseEnergy {
		scoring.DeductEnergy(r.client, act)
	}
	r.plan.CountTags(act)
	r.commits[ev] = commitRecord{minutes: act.DurationMin, attendees: attendees}
	r.version++

	observability.RecordPlacement(phase)
	r.trace().
		Str("activity_id", act.ID).
		Time("start", ev.Start).
		Str("phase", phase).
		Msg("event placed")
}

// resize swaps a committed event's activity for a variant of a different
// length and moves it, keeping engagement time in step
func (r *dayRun) resize(ev *models.PlanEvent, act *models.Activity, start time.Time) {
	ev.Replace(act, start)
	rec, ok := r.commits[ev]
	if !ok {
		return
	}
	for _, name := range rec.attendees {
		r.client.EngagementTime[name] += act.DurationMin - rec.minutes
	}
	rec.minutes = act.DurationMin
	r.commits[ev] = rec
}
