package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/database"
	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// PlanRepository stores planned days per client
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Replace swaps every stored day of the client's itinerary for days
func (r *PlanRepository) Replace(ctx context.Context, clientID string, days []*models.PlanDay) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM plan_days WHERE client_id = ?", clientID); err != nil {
			return fmt.Errorf("failed to clear plan for client %s: %w", clientID, err)
		}
		for _, d := range days {
			events, err := json.Marshal(d.Events)
			if err != nil {
				return fmt.Errorf("failed to encode events for %s: %w", d.Date.Format(models.DateLayout), err)
			}
			unplaced, err := json.Marshal(d.Unplaced)
			if err != nil {
				return fmt.Errorf("failed to encode unplaced for %s: %w", d.Date.Format(models.DateLayout), err)
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO plan_days
				(client_id, date, events_json, unplaced_json, total_cost, booked_minutes)
				VALUES (?, ?, ?, ?, ?, ?)`,
				clientID, d.Date.Format(models.DateLayout), string(events), string(unplaced),
				d.TotalCost(), d.BookedMinutes())
			if err != nil {
				return fmt.Errorf("failed to save plan day %s: %w", d.Date.Format(models.DateLayout), err)
			}
		}
		return nil
	})
}

// List loads the client's stored itinerary in date order
func (r *PlanRepository) List(ctx context.Context, clientID string) ([]*models.PlanDay, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, events_json, unplaced_json
		FROM plan_days WHERE client_id = ? ORDER BY date`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan days: %w", err)
	}
	defer rows.Close()

	var days []*models.PlanDay
	for rows.Next() {
		var date, events, unplaced string
		if err := rows.Scan(&date, &events, &unplaced); err != nil {
			return nil, fmt.Errorf("failed to scan plan day: %w", err)
		}
		d, err := decodeDay(date, events, unplaced)
		if err != nil {
			return nil, fmt.Errorf("%w: plan day %s for client %s: %v", ErrInvalidRecord, date, clientID, err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Get loads one stored day
func (r *PlanRepository) Get(ctx context.Context, clientID string, date time.Time) (*models.PlanDay, error) {
	key := date.Format(models.DateLayout)
	var events, unplaced string
	err := r.db.QueryRowContext(ctx, `SELECT events_json, unplaced_json
		FROM plan_days WHERE client_id = ? AND date = ?`, clientID, key).Scan(&events, &unplaced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan day %s for client %s", ErrNotFound, key, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan day: %w", err)
	}

	d, err := decodeDay(key, events, unplaced)
	if err != nil {
		return nil, fmt.Errorf("%w: plan day %s for client %s: %v", ErrInvalidRecord, key, clientID, err)
	}
	return d, nil
}

func decodeDay(date, events, unplaced string) (*models.PlanDay, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, err
	}
	d := models.NewPlanDay(t)
	if err := json.Unmarshal([]byte(events), &d.Events); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(unplaced), &d.Unplaced); err != nil {
		return nil, err
	}
	for _, ev := range d.Events {
		if ev.Activity == nil {
			return nil, errors.New("event without activity")
		}
		d.CountTags(ev.Activity)
	}
	return d, nil
}
