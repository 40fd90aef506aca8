package seller

import (
	"time"

	"github.com/trouvly/trouvly-backend/internal/geo"
)

// Seller statuses. Pending sellers remain discoverable by matching; only
// suspended and inactive profiles are excluded.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusInactive  = "inactive"
)

// Specialty declares one category a seller covers and the subcategories
// within it. A valid specialty carries at least one subcategory.
type Specialty struct {
	Category      string   `json:"category"`
	SubCategories []string `json:"subCategories"`
}

// Stats aggregates a seller's historical activity counters.
type Stats struct {
	TotalRequests       int     `json:"total_requests"`
	RespondedRequests   int     `json:"responded_requests"`
	SuccessfulDeals     int     `json:"successful_deals"`
	AvgResponseTimeMins float64 `json:"avg_response_time_mins"`
	Rating              float64 `json:"rating"`
	ReviewCount         int     `json:"review_count"`
}

// Seller is a service-provider profile with geolocated coverage.
type Seller struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	BusinessName    string      `json:"business_name"`
	Description     string      `json:"description,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	Location        geo.Point   `json:"location"`
	Address         string      `json:"address,omitempty"`
	City            string      `json:"city,omitempty"`
	PostalCode      string      `json:"postal_code,omitempty"`
	ServiceRadiusKm int         `json:"service_radius_km"`
	Specialties     []Specialty `json:"specialties"`
	Status          string      `json:"status"`
	IsAvailable     bool        `json:"is_available"`
	Stats           Stats       `json:"stats"`
	LastActiveAt    time.Time   `json:"last_active_at"`
	PushToken       string      `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
}

// HasSpecialty reports whether the seller covers the exact
// category/subcategory pair. A category-level match alone is not enough.
func (s *Seller) HasSpecialty(category, subCategory string) bool {
	for _, sp := range s.Specialties {
		if sp.Category != category {
			continue
		}
		for _, sub := range sp.SubCategories {
			if sub == subCategory {
				return true
			}
		}
	}
	return false
}

// HasCategory reports whether the seller covers the category at any depth.
func (s *Seller) HasCategory(category string) bool {
	for _, sp := range s.Specialties {
		if sp.Category == category {
			return true
		}
	}
	return false
}

// WithinServiceArea reports whether a point falls inside the seller's own
// declared coverage radius.
func (s *Seller) WithinServiceArea(p geo.Point) bool {
	return s.Location.DistanceTo(p) <= float64(s.ServiceRadiusKm)
}
