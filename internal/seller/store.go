package seller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/trouvly/trouvly-backend/internal/db"
)

// ErrNotFound is returned when no seller row matches.
var ErrNotFound = errors.New("seller not found")

// Store persists sellers in Postgres.
type Store struct {
	db *db.DB
}

// NewStore creates a seller store on the shared pool.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const sellerColumns = `s.id, s.user_id, s.business_name, COALESCE(s.description, ''), COALESCE(s.phone, ''),
	s.lat, s.lng, COALESCE(s.address, ''), COALESCE(s.city, ''), COALESCE(s.postal_code, ''),
	s.service_radius_km, s.specialties, s.status, s.is_available,
	s.total_requests, s.responded_requests, s.successful_deals, s.avg_response_time_mins,
	s.rating, s.review_count, s.last_active_at, COALESCE(s.push_token, ''), s.created_at`

func scanSeller(row pgx.Row) (*Seller, error) {
	var s Seller
	var specialties []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.BusinessName, &s.Description, &s.Phone,
		&s.Location.Lat, &s.Location.Lng, &s.Address, &s.City, &s.PostalCode,
		&s.ServiceRadiusKm, &specialties, &s.Status, &s.IsAvailable,
		&s.Stats.TotalRequests, &s.Stats.RespondedRequests, &s.Stats.SuccessfulDeals, &s.Stats.AvgResponseTimeMins,
		&s.Stats.Rating, &s.Stats.ReviewCount, &s.LastActiveAt, &s.PushToken, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(specialties, &s.Specialties); err != nil {
		return nil, fmt.Errorf("parse specialties: %w", err)
	}
	return &s, nil
}

// Create inserts a new seller profile.
func (st *Store) Create(ctx context.Context, s *Seller) error {
	specialties, err := json.Marshal(s.Specialties)
	if err != nil {
		return fmt.Errorf("encode specialties: %w", err)
	}
	_, err = st.db.Pool.Exec(ctx, `
		INSERT INTO sellers (id, user_id, business_name, description, phone, lat, lng,
			address, city, postal_code, service_radius_km, specialties, status, is_available,
			last_active_at, push_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, ''), $17)`,
		s.ID, s.UserID, s.BusinessName, s.Description, s.Phone, s.Location.Lat, s.Location.Lng,
		s.Address, s.City, s.PostalCode, s.ServiceRadiusKm, specialties, s.Status, s.IsAvailable,
		s.LastActiveAt, s.PushToken, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetByUserID loads the seller profile owned by a user.
func (st *Store) GetByUserID(ctx context.Context, userID string) (*Seller, error) {
	row := st.db.Pool.QueryRow(ctx,
		`SELECT `+sellerColumns+` FROM sellers s WHERE s.user_id = $1`, userID)
	s, err := scanSeller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// GetByID loads a seller by id.
func (st *Store) GetByID(ctx context.Context, id string) (*Seller, error) {
	row := st.db.Pool.QueryRow(ctx,
		`SELECT `+sellerColumns+` FROM sellers s WHERE s.id = $1`, id)
	s, err := scanSeller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// SetAvailability flips the availability flag and refreshes last_active_at.
func (st *Store) SetAvailability(ctx context.Context, userID string, available bool) error {
	tag, err := st.db.Pool.Exec(ctx,
		`UPDATE sellers SET is_available = $1, last_active_at = $2 WHERE user_id = $3`,
		available, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPushToken stores the seller-level device token.
func (st *Store) SetPushToken(ctx context.Context, userID, token string) error {
	tag, err := st.db.Pool.Exec(ctx,
		`UPDATE sellers SET push_token = NULLIF($1, '') WHERE user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NearbyQuery describes a compound proximity lookup: status, availability and
// specialty constraints combined with a geofence around a point.
type NearbyQuery struct {
	Lat           float64
	Lng           float64
	RadiusMeters  float64
	Statuses      []string
	AvailableOnly bool
	Category      string
	SubCategory   string
}

// FindNearby returns sellers satisfying the query, nearest first. The
// resolved push token prefers the seller-level value and falls back to the
// token on the linked user record.
func (st *Store) FindNearby(ctx context.Context, q NearbyQuery) ([]Seller, error) {
	specialtyFilter, err := json.Marshal([]Specialty{{Category: q.Category, SubCategories: []string{q.SubCategory}}})
	if err != nil {
		return nil, fmt.Errorf("encode specialty filter: %w", err)
	}

	query := `
		SELECT s.id, s.user_id, s.business_name, COALESCE(s.description, ''), COALESCE(s.phone, ''),
			s.lat, s.lng, COALESCE(s.address, ''), COALESCE(s.city, ''), COALESCE(s.postal_code, ''),
			s.service_radius_km, s.specialties, s.status, s.is_available,
			s.total_requests, s.responded_requests, s.successful_deals, s.avg_response_time_mins,
			s.rating, s.review_count, s.last_active_at,
			COALESCE(NULLIF(s.push_token, ''), NULLIF(u.push_token, ''), ''), s.created_at
		FROM sellers s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = ANY($1)
		  AND ($2::boolean = FALSE OR s.is_available)
		  AND s.specialties @> $3::jsonb
		  AND earth_box(ll_to_earth($4, $5), $6) @> ll_to_earth(s.lat, s.lng)
		  AND earth_distance(ll_to_earth($4, $5), ll_to_earth(s.lat, s.lng)) <= $6
		ORDER BY earth_distance(ll_to_earth($4, $5), ll_to_earth(s.lat, s.lng)) ASC`

	rows, err := st.db.Pool.Query(ctx, query,
		q.Statuses, q.AvailableOnly, specialtyFilter, q.Lat, q.Lng, q.RadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("nearby sellers query: %w", err)
	}
	defer rows.Close()

	var sellers []Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seller row: %w", err)
		}
		sellers = append(sellers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearby sellers rows: %w", err)
	}
	return sellers, nil
}

// IncrementNotified bumps the total-notified counter atomically. Many
// concurrent dispatches touch the same row, so this never reads first.
func (st *Store) IncrementNotified(ctx context.Context, sellerID string) error {
	_, err := st.db.Pool.Exec(ctx,
		`UPDATE sellers SET total_requests = total_requests + 1 WHERE id = $1`, sellerID)
	if err != nil {
		return fmt.Errorf("increment total_requests: %w", err)
	}
	return nil
}

// RecordResponse bumps the responded counter and refreshes activity.
func (st *Store) RecordResponse(ctx context.Context, sellerID string) error {
	_, err := st.db.Pool.Exec(ctx,
		`UPDATE sellers SET responded_requests = responded_requests + 1, last_active_at = $1 WHERE id = $2`,
		time.Now(), sellerID)
	if err != nil {
		return fmt.Errorf("increment responded_requests: %w", err)
	}
	return nil
}
