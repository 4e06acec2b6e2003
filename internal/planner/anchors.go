package planner

import (
	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/timegrid"
)

// placeAnchor books a fixed-time activity at the first of its declared starts
// that passes the hard checks. Anchors only displace meals: every overlapping
// meal is moved out of the way, and if any of them cannot be, the meal changes
// are undone and the next start is tried. An anchor with no workable start is
// recorded as unplaced.
func (r *dayRun) placeAnchor(act *models.Activity) bool {
	g := scoring.GroupInterestScore(r.client, act)
	opts := constraints.Options{}
	if g.Extreme {
		opts.Attendees = g.Funded()
	}

	for _, start := range timegrid.Starts(act, r.plan.Date) {
		if reason := r.p.checker.Intrinsic(r.ctx, r.client, act, r.plan.Date, start, opts); reason != constraints.OK {
			r.trace().Str("activity_id", act.ID).Time("start", start).Str("reason", string(reason)).Msg("anchor start rejected")
			continue
		}

		blockers := r.plan.Blocking(start, start.Add(act.Duration()))
		if !allMeals(blockers) {
			continue
		}

		ev := models.NewPlanEvent(act, start)
		ev.Attendees = opts.Attendees
		r.plan.Add(ev)

		saved := r.snapshot(blockers)
		resolved := true
		for _, meal := range blockers {
			if !r.resolveMealConflict(meal, ev) {
				resolved = false
				break
			}
		}
		if !resolved {
			r.plan.Remove(ev)
			r.restore(saved)
			continue
		}

		r.commit(ev, g.Credits, observability.PhaseAnchor)
		return true
	}

	r.trace().Str("activity_id", act.ID).Str("reason", models.ReasonAnchorRolledBack).Msg("anchor rolled back")
	r.plan.MarkUnplaced(act, models.ReasonAnchorRolledBack)
	observability.RecordUnplaced(models.ReasonAnchorRolledBack)
	return false
}

func allMeals(evs []*models.PlanEvent) bool {
	for _, ev := range evs {
		if !ev.Activity.IsFood() || ev.Activity.IsAnchor() {
			return false
		}
	}
	return true
}
