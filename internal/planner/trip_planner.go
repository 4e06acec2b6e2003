package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// ErrInvalidTrip is returned for a missing client or a trip that ends before it starts
var ErrInvalidTrip = errors.New("invalid trip")

// TripPlanner plans every day of a client's trip
type TripPlanner struct {
	day *DayPlanner
}

// NewTripPlanner creates a trip planner on top of a day planner
func NewTripPlanner(day *DayPlanner) *TripPlanner {
	return &TripPlanner{day: day}
}

// PlanTrip runs the day planner for each date from TripStart to TripEnd and
// resets the client's daily ledgers in between. Unless AllowRepeats is set an
// activity booked on one day is not offered again on later days.
func (t *TripPlanner) PlanTrip(ctx context.Context, client *models.Client, acts []*models.Activity) ([]*models.PlanDay, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil client", ErrInvalidTrip)
	}
	if client.TripEnd.Before(client.TripStart) {
		return nil, fmt.Errorf("%w: client %s ends %s before it starts %s", ErrInvalidTrip, client.ID,
			client.TripEnd.Format(models.DateLayout), client.TripStart.Format(models.DateLayout))
	}

	used := make(map[string]bool)
	days := make([]*models.PlanDay, 0, client.TripDays())
	for _, date := range client.TripDates() {
		if err := ctx.Err(); err != nil {
			return days, err
		}

		avail := acts
		if !t.day.cfg.AllowRepeats {
			avail = make([]*models.Activity, 0, len(acts))
			for _, a := range acts {
				if !used[a.TemplateID()] {
					avail = append(avail, a)
				}
			}
		}

		day := t.day.PlanDay(ctx, client, avail, date)
		for _, ev := range day.Events {
			used[ev.Activity.TemplateID()] = true
		}
		days = append(days, day)
		client.ResetDay()
	}
	return days, nil
}

// PlanTrips plans several clients concurrently, at most limit at a time
// (limit <= 0 means no limit). Clients are planned independently; activities
// are shared read-only. The first error cancels the remaining work.
func (t *TripPlanner) PlanTrips(ctx context.Context, clients []*models.Client, acts []*models.Activity, limit int) (map[string][]*models.PlanDay, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	out := make(map[string][]*models.PlanDay, len(clients))
	for _, c := range clients {
		c := c
		g.Go(func() error {
			days, err := t.PlanTrip(ctx, c, acts)
			if err != nil {
				return err
			}
			mu.Lock()
			out[c.ID] = days
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
