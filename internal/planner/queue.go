package planner

import (
	"container/heap"

	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/scoring"
)

type queueItem struct {
	act      *models.Activity
	priority float64
	base     float64
	version  int
}

type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	if h[i].base != h[j].base {
		return h[i].base > h[j].base
	}
	return h[i].act.ID < h[j].act.ID
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*queueItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// activityQueue is a max-heap of activities keyed by scoring.Priority.
// Priorities only fall as the day fills up (tag repeats, spent credits),
// so stale entries are re-scored lazily when they reach the top.
type activityQueue struct {
	items  itemHeap
	client *models.Client
	plan   *models.PlanDay
}

func newActivityQueue(client *models.Client, plan *models.PlanDay, acts []*models.Activity, version int) *activityQueue {
	q := &activityQueue{client: client, plan: plan}
	for _, a := range acts {
		q.items = append(q.items, q.score(a, version))
	}
	heap.Init(&q.items)
	return q
}

func (q *activityQueue) score(act *models.Activity, version int) *queueItem {
	return &queueItem{
		act:      act,
		priority: scoring.Priority(q.client, act, q.plan.TagCounts),
		base:     scoring.BaseValue(q.client, act),
		version:  version,
	}
}

func (q *activityQueue) Len() int { return q.items.Len() }

// Next pops the best activity given the plan state at version
func (q *activityQueue) Next(version int) *models.Activity {
	for q.items.Len() > 0 {
		it := heap.Pop(&q.items).(*queueItem)
		if it.version == version {
			return it.act
		}
		heap.Push(&q.items, q.score(it.act, version))
	}
	return nil
}
