package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// ActivityFilter narrows an activity listing. Zero values match everything.
type ActivityFilter struct {
	City     string
	Category string
}

// ActivityRepository handles database operations for activity templates
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Save validates and upserts activities in one transaction
func (r *ActivityRepository) Save(ctx context.Context, acts ...*models.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range acts {
		if err := validateActivity(a); err != nil {
			return err
		}
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to encode activity %s: %w", a.ID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO activities (id, city, category, data_json) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET city = excluded.city, category = excluded.category, data_json = excluded.data_json`,
			a.ID, a.City, a.Category, string(data))
		if err != nil {
			return fmt.Errorf("failed to save activity %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activities: %w", err)
	}
	return nil
}

// List loads the activities matching filter ordered by ID. A malformed row
// fails the whole load.
func (r *ActivityRepository) List(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error) {
	query := "SELECT id, data_json FROM activities"

	var conditions []string
	var args []interface{}
	if filter.City != "" {
		conditions = append(conditions, "city = ?")
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var acts []*models.Activity
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		var a models.Activity
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("%w: activity %s: %v", ErrInvalidRecord, id, err)
		}
		if err := validateActivity(&a); err != nil {
			return nil, err
		}
		acts = append(acts, &a)
	}
	return acts, rows.Err()
}

func validateActivity(a *models.Activity) error {
	if a == nil {
		return fmt.Errorf("%w: nil activity", ErrInvalidRecord)
	}
	if err := check("activity", a.ID, a); err != nil {
		return err
	}

	hours := &a.OpeningHours
	if hours.Daily == nil && len(hours.Weekly) == 0 && len(a.FixedTimes) == 0 {
		return fmt.Errorf("%w: activity %q has neither opening hours nor fixed times", ErrInvalidRecord, a.ID)
	}
	if hours.Daily != nil {
		w, err := normalizeWindow(*hours.Daily)
		if err != nil {
			return fmt.Errorf("%w: activity %q daily hours: %v", ErrInvalidRecord, a.ID, err)
		}
		hours.Daily = &w
	}
	for day, w := range hours.Weekly {
		nw, err := normalizeWindow(w)
		if err != nil {
			return fmt.Errorf("%w: activity %q %s hours: %v", ErrInvalidRecord, a.ID, day, err)
		}
		hours.Weekly[day] = nw
	}

	for _, ft := range a.FixedTimes {
		if ft.StartMin < 0 || ft.StartMin >= models.MinutesPerDay {
			return fmt.Errorf("%w: activity %q fixed time start %d out of range", ErrInvalidRecord, a.ID, ft.StartMin)
		}
		if ft.Date == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, ft.Date); err != nil {
			return fmt.Errorf("%w: activity %q fixed time date %q: %v", ErrInvalidRecord, a.ID, ft.Date, err)
		}
	}
	return nil
}

// normalizeWindow wraps windows that close after midnight and rejects clock
// values outside a day
func normalizeWindow(w models.Window) (models.Window, error) {
	if w.OpenMin < 0 || w.OpenMin >= models.MinutesPerDay {
		return models.Window{}, fmt.Errorf("open %d out of range", w.OpenMin)
	}
	if w.CloseMin < 0 || w.CloseMin > 2*models.MinutesPerDay {
		return models.Window{}, fmt.Errorf("close %d out of range", w.CloseMin)
	}
	if w.CloseMin == w.OpenMin {
		return models.Window{}, fmt.Errorf("empty window at %s", models.FormatClock(w.OpenMin))
	}
	return models.NewWindow(w.OpenMin, w.CloseMin), nil
}
