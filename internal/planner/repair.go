package planner

import (
	"sort"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/timegrid"
)

// Repair outcomes
const (
	repairSucceeded = "succeeded"
	repairFailed    = "failed"
	repairRejected  = "rejected"
)

type move struct {
	ev   *models.PlanEvent
	from time.Time
}

// repairResult is a tentative placement made by RepairB together with the
// events it moved to make room
type repairResult struct {
	placed *models.PlanEvent
	moves  []move
}

// rollback removes the placement and puts every moved event back
func (res *repairResult) rollback(plan *models.PlanDay) {
	plan.Remove(res.placed)
	for i := len(res.moves) - 1; i >= 0; i-- {
		res.moves[i].ev.MoveTo(res.moves[i].from)
	}
	plan.Sort()
}

// repairB tries to book act at start by pushing a blocking event later in the
// day. The event overlapping the slot the most goes first; if it cannot move
// and TryOthers is set, other flexible events are moved, least flexible first,
// each either freeing the slot itself or making room for the direct conflict
// to move. Anchors never move. The placement is always re-validated, and on
// success the target is in the plan at start.
func (r *dayRun) repairB(act *models.Activity, start time.Time, opts constraints.Options) (*repairResult, bool) {
	end := start.Add(act.Duration())
	place := func() (*repairResult, bool) {
		return r.placeTarget(act, start, opts)
	}

	conflicts := r.plan.Blocking(start, end)
	if len(conflicts) == 0 {
		return place()
	}

	direct := conflicts[0]
	for _, ev := range conflicts[1:] {
		if ev.OverlapMinutes(start, end) > direct.OverlapMinutes(start, end) {
			direct = ev
		}
	}
	if res, ok := r.nudge(direct, start, end, place); ok {
		return res, true
	}

	if r.p.cfg.TryOthers {
		for _, ev := range r.byFlexibility(direct) {
			then := func() (*repairResult, bool) {
				if res, ok := place(); ok {
					return res, true
				}
				return r.nudge(direct, start, end, place)
			}
			if res, ok := r.nudge(ev, start, end, then); ok {
				return res, true
			}
		}
	}

	observability.RecordRepair(repairFailed)
	r.trace().Str("activity_id", act.ID).Time("start", start).Str("reason", "repair_failed").Msg("slot not freed")
	return nil, false
}

// placeTarget books act at start if every hard constraint holds against the current plan
func (r *dayRun) placeTarget(act *models.Activity, start time.Time, opts constraints.Options) (*repairResult, bool) {
	if r.p.checker.HardFeasible(r.ctx, r.client, act, start, r.plan, opts) != constraints.OK {
		return nil, false
	}
	ev := models.NewPlanEvent(act, start)
	ev.Attendees = opts.Attendees
	r.plan.Add(ev)
	return &repairResult{placed: ev}, true
}

// nudge moves ev to one of its later feasible starts that stays clear of
// [start, end), trying at most MaxMoves of them. It keeps the first move after
// which then succeeds and reverts the rest.
func (r *dayRun) nudge(ev *models.PlanEvent, start, end time.Time, then func() (*repairResult, bool)) (*repairResult, bool) {
	if ev.Activity.IsAnchor() {
		return nil, false
	}
	from := ev.Start
	tried := 0
	for _, t := range r.laterStarts(ev) {
		if tried >= r.p.cfg.maxMoves() {
			break
		}
		if t.Before(end) && start.Before(t.Add(ev.Activity.Duration())) {
			continue
		}
		if !r.fitsElsewhere(ev, t) {
			continue
		}
		tried++

		ev.MoveTo(t)
		if res, ok := then(); ok {
			res.moves = append(res.moves, move{ev: ev, from: from})
			r.plan.Sort()
			r.trace().Str("activity_id", ev.Activity.ID).Time("from", from).Time("to", t).Msg("event nudged")
			return res, true
		}
		ev.MoveTo(from)
	}
	return nil, false
}

// laterStarts lists ev's candidate starts after its current one. Meals stay inside their meal window.
func (r *dayRun) laterStarts(ev *models.PlanEvent) []time.Time {
	w, isMeal := r.meals[ev]
	var out []time.Time
	for _, t := range timegrid.Starts(ev.Activity, r.plan.Date) {
		if !t.After(ev.Start) {
			continue
		}
		if isMeal && !w.Contains(models.MinutesSinceMidnight(r.plan.Date, t), ev.Activity.DurationMin) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// fitsElsewhere checks ev at t against every other event and its own hard constraints
func (r *dayRun) fitsElsewhere(ev *models.PlanEvent, t time.Time) bool {
	opts := constraints.Options{Attendees: ev.Attendees, Exclude: []*models.PlanEvent{ev}}
	return r.p.checker.HardFeasible(r.ctx, r.client, ev.Activity, t, r.plan, opts) == constraints.OK
}

// flexibility counts the later starts ev could move to right now
func (r *dayRun) flexibility(ev *models.PlanEvent) int {
	if ev.Activity.IsAnchor() {
		return 0
	}
	n := 0
	for _, t := range r.laterStarts(ev) {
		if r.fitsElsewhere(ev, t) {
			n++
		}
	}
	return n
}

// byFlexibility returns the movable events other than skip, least flexible first
func (r *dayRun) byFlexibility(skip *models.PlanEvent) []*models.PlanEvent {
	type scored struct {
		ev   *models.PlanEvent
		flex int
	}
	var list []scored
	for _, ev := range r.plan.Events {
		if ev == skip || ev.Activity.IsAnchor() {
			continue
		}
		list = append(list, scored{ev: ev, flex: r.flexibility(ev)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].flex != list[j].flex {
			return list[i].flex < list[j].flex
		}
		return list[i].ev.Start.Before(list[j].ev.Start)
	})
	out := make([]*models.PlanEvent, len(list))
	for i, s := range list {
		out[i] = s.ev
	}
	return out
}
