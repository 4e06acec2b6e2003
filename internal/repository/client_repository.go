package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// ClientRepository handles database operations for travel parties
type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Save validates and upserts a client
func (r *ClientRepository) Save(ctx context.Context, c *models.Client) error {
	if err := validateClient(c); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode client %s: %w", c.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO clients (id, data_json) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data_json = excluded.data_json, updated_at = CURRENT_TIMESTAMP`,
		c.ID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save client %s: %w", c.ID, err)
	}
	return nil
}

// Get loads a client with fresh ledgers
func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	var data string
	err := r.db.QueryRowContext(ctx, "SELECT data_json FROM clients WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %s: %w", id, err)
	}

	var c models.Client
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("%w: client %s: %v", ErrInvalidRecord, id, err)
	}
	if err := validateClient(&c); err != nil {
		return nil, err
	}
	return models.NewClient(&c), nil
}

// IDs lists every stored client ID in order
func (r *ClientRepository) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM clients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan client id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func validateClient(c *models.Client) error {
	if c == nil {
		return fmt.Errorf("%w: nil client", ErrInvalidRecord)
	}
	if err := check("client", c.ID, c); err != nil {
		return err
	}
	if c.TripStart.IsZero() || c.TripEnd.Before(c.TripStart) {
		return fmt.Errorf("%w: client %q: trip dates %s..%s", ErrInvalidRecord, c.ID,
			c.TripStart.Format(models.DateLayout), c.TripEnd.Format(models.DateLayout))
	}
	for name, m := range c.Members {
		if m.Name != name {
			return fmt.Errorf("%w: client %q: member key %q does not match name %q", ErrInvalidRecord, c.ID, name, m.Name)
		}
	}
	return nil
}
