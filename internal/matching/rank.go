package matching

import (
	"math"
	"sort"
	"time"

	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/seller"
)

// Score rates how well a seller matches a request. Five non-negative
// components are summed and rounded:
//
//	distance:       max(0, 50 - 2*km), zero beyond 25 km
//	specialty:      +30 for the exact category/subcategory pair
//	reputation:     rating * 10 (rating is 0-5)
//	recency:        max(0, 20 - days since last active)
//	responsiveness: responded/max(1, total) * 20
//
// The result has no documented upper bound; consumers must not assume one.
func Score(s *seller.Seller, req *request.Request, distanceKm float64, now time.Time) int {
	distance := math.Max(0, 50-2*distanceKm)

	specialty := 0.0
	if s.HasSpecialty(req.Category, req.SubCategory) {
		specialty = 30
	}

	reputation := s.Stats.Rating * 10

	daysInactive := now.Sub(s.LastActiveAt).Hours() / 24
	recency := math.Max(0, 20-daysInactive)

	responsiveness := float64(s.Stats.RespondedRequests) /
		math.Max(1, float64(s.Stats.TotalRequests)) * 20

	total := distance + specialty + reputation + recency + responsiveness
	if math.IsNaN(total) {
		total = 0
	}
	return int(math.Round(total))
}

// Rank sorts candidates by score, highest first. The sort is stable so that
// equal scores keep the proximity query's nearest-first order. Ranking only
// orders candidates; it never drops any.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
