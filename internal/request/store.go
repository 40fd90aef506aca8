package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/trouvly/trouvly-backend/internal/db"
)

// ErrNotFound is returned when no request row matches.
var ErrNotFound = errors.New("request not found")

// Store persists requests in Postgres.
type Store struct {
	db *db.DB
}

// NewStore creates a request store on the shared pool.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const requestColumns = `id, user_id, title, description, category, sub_category, lat, lng,
	COALESCE(address, ''), COALESCE(city, ''), COALESCE(postal_code, ''), radius_km,
	status, priority, budget_min, budget_max, photos, tags,
	responses_count, views_count, created_at, expires_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var photos, tags []byte
	err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Category, &r.SubCategory,
		&r.Location.Lat, &r.Location.Lng, &r.Address, &r.City, &r.PostalCode, &r.RadiusKm,
		&r.Status, &r.Priority, &r.BudgetMin, &r.BudgetMax, &photos, &tags,
		&r.ResponsesCount, &r.ViewsCount, &r.CreatedAt, &r.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photos, &r.Photos); err != nil {
		return nil, fmt.Errorf("parse photos: %w", err)
	}
	if err := json.Unmarshal(tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	return &r, nil
}

// Create inserts a new request.
func (st *Store) Create(ctx context.Context, r *Request) error {
	photos, err := json.Marshal(r.Photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = st.db.Pool.Exec(ctx, `
		INSERT INTO requests (id, user_id, title, description, category, sub_category, lat, lng,
			address, city, postal_code, radius_km, status, priority, budget_min, budget_max,
			photos, tags, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		r.ID, r.UserID, r.Title, r.Description, r.Category, r.SubCategory, r.Location.Lat, r.Location.Lng,
		r.Address, r.City, r.PostalCode, r.RadiusKm, r.Status, r.Priority, r.BudgetMin, r.BudgetMax,
		photos, tags, r.CreatedAt, r.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetByID loads a request.
func (st *Store) GetByID(ctx context.Context, id string) (*Request, error) {
	row := st.db.Pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	return r, nil
}

// ListByUser returns a user's requests, newest first.
func (st *Store) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	rows, err := st.db.Pool.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// FindNearbyActive returns active, unexpired requests whose own search radius
// covers the given point, nearest first. This backs the seller feed.
func (st *Store) FindNearbyActive(ctx context.Context, lat, lng float64, limit int) ([]Request, error) {
	rows, err := st.db.Pool.Query(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE status = 'active'
		  AND expires_at > NOW()
		  AND earth_distance(ll_to_earth($1, $2), ll_to_earth(lat, lng)) <= radius_km * 1000
		ORDER BY earth_distance(ll_to_earth($1, $2), ll_to_earth(lat, lng)) ASC
		LIMIT $3`, lat, lng, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby requests query: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// UpdateStatus transitions a request owned by userID from active to the
// given status.
func (st *Store) UpdateStatus(ctx context.Context, id, userID, status string) error {
	tag, err := st.db.Pool.Exec(ctx,
		`UPDATE requests SET status = $1 WHERE id = $2 AND user_id = $3 AND status = 'active'`,
		status, id, userID)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter atomically.
func (st *Store) IncrementViews(ctx context.Context, id string) error {
	_, err := st.db.Pool.Exec(ctx,
		`UPDATE requests SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views_count: %w", err)
	}
	return nil
}

// IncrementResponses bumps the response counter atomically.
func (st *Store) IncrementResponses(ctx context.Context, id string) error {
	_, err := st.db.Pool.Exec(ctx,
		`UPDATE requests SET responses_count = responses_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment responses_count: %w", err)
	}
	return nil
}
