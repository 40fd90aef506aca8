// Package user holds the minimal account record backing auth identity,
// author display info and the device-token fallback.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/trouvly/trouvly-backend/internal/db"
)

// ErrNotFound is returned when no user row matches.
var ErrNotFound = errors.New("user not found")

// User is an account. Full profile management lives outside this service.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	PushToken string `json:"-"`
}

// Store reads and writes users.
type Store struct {
	db *db.DB
}

// NewStore creates a user store on the shared pool.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetByID loads a user.
func (st *Store) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := st.db.Pool.QueryRow(ctx,
		`SELECT id, name, email, role, COALESCE(push_token, '') FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PushToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

// SetPushToken stores the user-level device token.
func (st *Store) SetPushToken(ctx context.Context, id, token string) error {
	tag, err := st.db.Pool.Exec(ctx,
		`UPDATE users SET push_token = NULLIF($1, '') WHERE id = $2`, token, id)
	if err != nil {
		return fmt.Errorf("update user push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
