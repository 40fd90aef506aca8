// Package matching computes the candidate seller set for a request and
// orders it by match quality.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/seller"
)

// DiscoverableStatuses lists the seller statuses eligible for matching.
// Pending sellers stay discoverable; whether they should also be notified is
// a policy call, currently answered permissively.
var DiscoverableStatuses = []string{seller.StatusActive, seller.StatusPending}

// Candidate is a seller provisionally matched to a request. It lives only
// for the duration of one matching pass and is never persisted.
type Candidate struct {
	Seller     seller.Seller
	DistanceKm float64
	Score      int
	PushToken  string
}

// SellerSource is the geospatial store query the engine runs against.
type SellerSource interface {
	FindNearby(ctx context.Context, q seller.NearbyQuery) ([]seller.Seller, error)
}

// Engine finds and ranks matching sellers.
type Engine struct {
	sellers SellerSource
}

// NewEngine creates an Engine over a seller source.
func NewEngine(sellers SellerSource) *Engine {
	return &Engine{sellers: sellers}
}

// FindMatchingSellers returns the ranked candidate set for a request.
// A seller qualifies iff its status is discoverable, it is available, it
// lies within the request's radius, and it declares the exact
// category/subcategory pair. Store failures propagate; the pipeline decides
// how to surface them.
func (e *Engine) FindMatchingSellers(ctx context.Context, req *request.Request) ([]Candidate, error) {
	rows, err := e.sellers.FindNearby(ctx, seller.NearbyQuery{
		Lat:           req.Location.Lat,
		Lng:           req.Location.Lng,
		RadiusMeters:  req.RadiusMeters(),
		Statuses:      DiscoverableStatuses,
		AvailableOnly: true,
		Category:      req.Category,
		SubCategory:   req.SubCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("find matching sellers: %w", err)
	}

	now := time.Now()
	candidates := make([]Candidate, 0, len(rows))
	for _, s := range rows {
		// The store already filters; the predicate is re-applied here so the
		// engine's contract does not depend on index precision or stored
		// specialty shape.
		if !s.HasSpecialty(req.Category, req.SubCategory) {
			continue
		}
		d := s.Location.DistanceTo(req.Location)
		if d > float64(req.RadiusKm) {
			continue
		}
		candidates = append(candidates, Candidate{
			Seller:     s,
			DistanceKm: geo.RoundKm(d),
			Score:      Score(&s, req, d, now),
			PushToken:  s.PushToken,
		})
	}

	Rank(candidates)
	return candidates, nil
}
