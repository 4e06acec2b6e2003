package planner

import (
	"sort"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
	"github.com/jengzang/itinerary-planner-go/internal/timegrid"
)

// SatisfactionRatio is the share of the maximum possible tag interest a member
// needs for an activity to count as satisfying them
const SatisfactionRatio = 0.75

// BasePlan is one beam entry: a set of activities and the members it satisfies
type BasePlan struct {
	Activities []*models.Activity
	Satisfied  map[string]bool
	Score      float64

	minutes map[string]int
}

func (b *BasePlan) fork() *BasePlan {
	c := &BasePlan{
		Activities: append([]*models.Activity(nil), b.Activities...),
		Satisfied:  make(map[string]bool, len(b.Satisfied)),
		Score:      b.Score,
		minutes:    make(map[string]int, len(b.minutes)),
	}
	for k, v := range b.Satisfied {
		c.Satisfied[k] = v
	}
	for k, v := range b.minutes {
		c.minutes[k] = v
	}
	return c
}

type baseCandidate struct {
	act       *models.Activity
	satisfies []string
	score     float64
}

// SatisfiedMembers returns the members whose interest in act reaches
// SatisfactionRatio of the maximum possible for its tags
func SatisfiedMembers(client *models.Client, act *models.Activity) []string {
	if len(act.Tags) == 0 {
		return nil
	}
	bar := SatisfactionRatio * scoring.MaxInterest * float64(len(act.Tags))
	var out []string
	for _, name := range client.MemberNames() {
		if scoring.MemberInterest(client.Members[name], act) >= bar {
			out = append(out, name)
		}
	}
	return out
}

// BuildBasePlan runs a beam search for small activity sets that satisfy as many
// distinct members as possible, without any member exceeding their fair share of
// the day. Results are best first.
func BuildBasePlan(client *models.Client, acts []*models.Activity, date time.Time, width int) []*BasePlan {
	if width < 1 {
		width = 1
	}

	var cands []baseCandidate
	for _, a := range acts {
		if len(timegrid.Starts(a, date)) == 0 || !constraints.AgeOK(client, a, nil) {
			continue
		}
		sat := SatisfiedMembers(client, a)
		if len(sat) == 0 {
			continue
		}
		total := 0.0
		for _, name := range sat {
			total += scoring.MemberInterest(client.Members[name], a)
		}
		cands = append(cands, baseCandidate{act: a, satisfies: sat, score: total})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if len(cands[i].satisfies) != len(cands[j].satisfies) {
			return len(cands[i].satisfies) > len(cands[j].satisfies)
		}
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].act.ID < cands[j].act.ID
	})

	share := client.DailyActTimePerMember()
	beam := []*BasePlan{{Satisfied: map[string]bool{}, minutes: map[string]int{}}}

	for _, c := range cands {
		next := make([]*BasePlan, 0, 2*len(beam))
		for _, p := range beam {
			next = append(next, p)

			var fresh []string
			for _, name := range c.satisfies {
				if p.Satisfied[name] {
					continue
				}
				if float64(p.minutes[name]+c.act.DurationMin) > share {
					continue
				}
				fresh = append(fresh, name)
			}
			if len(fresh) == 0 {
				continue
			}

			taken := p.fork()
			taken.Activities = append(taken.Activities, c.act)
			for _, name := range fresh {
				taken.Satisfied[name] = true
				taken.minutes[name] += c.act.DurationMin
			}
			taken.Score += c.score
			next = append(next, taken)
		}
		beam = prune(next, width)
	}
	return beam
}

func prune(plans []*BasePlan, width int) []*BasePlan {
	sort.SliceStable(plans, func(i, j int) bool {
		if len(plans[i].Satisfied) != len(plans[j].Satisfied) {
			return len(plans[i].Satisfied) > len(plans[j].Satisfied)
		}
		return plans[i].Score > plans[j].Score
	})
	if len(plans) > width {
		plans = plans[:width]
	}
	return plans
}
