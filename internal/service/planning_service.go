package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/itinerary-planner-go/internal/evaluation"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/planner"
	"github.com/jengzang/itinerary-planner-go/internal/repository"
)

// Report is the outcome of planning one client's trip
type Report struct {
	ClientID   string                `json:"client_id"`
	Days       []*models.PlanDay     `json:"days"`
	Evaluation evaluation.TripReport `json:"evaluation"`
	Unplaced   int                   `json:"unplaced"`
	Elapsed    time.Duration         `json:"elapsed"`
}

// PlanningService loads clients and activities, plans trips and stores the itineraries
type PlanningService struct {
	clients     *repository.ClientRepository
	activities  *repository.ActivityRepository
	plans       *repository.PlanRepository
	trips       *planner.TripPlanner
	concurrency int
	log         zerolog.Logger
}

// NewPlanningService creates a new planning service. concurrency bounds PlanAll.
func NewPlanningService(
	clients *repository.ClientRepository,
	activities *repository.ActivityRepository,
	plans *repository.PlanRepository,
	trips *planner.TripPlanner,
	concurrency int,
	log zerolog.Logger,
) *PlanningService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PlanningService{
		clients:     clients,
		activities:  activities,
		plans:       plans,
		trips:       trips,
		concurrency: concurrency,
		log:         log,
	}
}

// PlanClient plans the stored client's whole trip over the activities in its
// home city, replaces any stored itinerary and grades the result
func (s *PlanningService) PlanClient(ctx context.Context, clientID string) (*Report, error) {
	started := time.Now()

	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	acts, err := s.activities.List(ctx, repository.ActivityFilter{City: client.HomeBase.City})
	if err != nil {
		return nil, fmt.Errorf("failed to load activities for %s: %w", clientID, err)
	}

	log := s.log.With().Str("client_id", clientID).Logger()
	log.Info().Int("activities", len(acts)).Int("days", client.TripDays()).Msg("planning trip")

	days, err := s.trips.PlanTrip(ctx, client, acts)
	if err != nil {
		return nil, fmt.Errorf("failed to plan trip for %s: %w", clientID, err)
	}
	if err := s.plans.Replace(ctx, clientID, days); err != nil {
		return nil, fmt.Errorf("failed to store itinerary for %s: %w", clientID, err)
	}

	report := &Report{
		ClientID:   clientID,
		Days:       days,
		Evaluation: evaluation.EvaluateTrip(client, days),
		Elapsed:    time.Since(started),
	}
	for _, d := range days {
		report.Unplaced += len(d.Unplaced)
	}

	log.Info().
		Float64("composite", report.Evaluation.Composite).
		Int("unplaced", report.Unplaced).
		Dur("elapsed", report.Elapsed).
		Msg("trip planned")
	return report, nil
}

// PlanAll plans every stored client, several at a time. The first failure
// cancels the rest.
func (s *PlanningService) PlanAll(ctx context.Context) ([]*Report, error) {
	ids, err := s.clients.IDs(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	reports := make(map[string]*Report, len(ids))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			r, err := s.PlanClient(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[id] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Report, 0, len(ids))
	for _, id := range ids {
		out = append(out, reports[id])
	}
	return out, nil
}

// Itinerary returns the stored itinerary of a client
func (s *PlanningService) Itinerary(ctx context.Context, clientID string) ([]*models.PlanDay, error) {
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.plans.List(ctx, clientID)
}
