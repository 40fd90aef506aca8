package request

import (
	"time"

	"github.com/trouvly/trouvly-backend/internal/geo"
)

// Request statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Request priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// DefaultTTL is how long a request stays active before expiring.
const DefaultTTL = 30 * 24 * time.Hour

// Request is a posted want/need with category, location and search radius.
type Request struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	SubCategory    string    `json:"sub_category"`
	Location       geo.Point `json:"location"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	PostalCode     string    `json:"postal_code,omitempty"`
	RadiusKm       int       `json:"radius_km"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	BudgetMin      *float64  `json:"budget_min,omitempty"`
	BudgetMax      *float64  `json:"budget_max,omitempty"`
	Photos         []string  `json:"photos"`
	Tags           []string  `json:"tags"`
	ResponsesCount int       `json:"responses_count"`
	ViewsCount     int       `json:"views_count"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// RadiusMeters converts the search radius for the proximity index.
func (r *Request) RadiusMeters() float64 {
	return float64(r.RadiusKm) * 1000
}

// IsUrgent reports whether the request carries an elevated priority.
func (r *Request) IsUrgent() bool {
	return r.Priority == PriorityHigh || r.Priority == PriorityUrgent
}
