package matching

import (
	"testing"
	"time"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/seller"
)

func testRequest() *request.Request {
	return &request.Request{
		ID:          "req-1",
		Category:    "electronique",
		SubCategory: "smartphones",
		Location:    geo.Point{Lat: 48.85, Lng: 2.35},
		RadiusKm:    10,
	}
}

func exactSeller(now time.Time) *seller.Seller {
	return &seller.Seller{
		Specialties:  []seller.Specialty{{Category: "electronique", SubCategories: []string{"smartphones"}}},
		Stats:        seller.Stats{Rating: 4.5, TotalRequests: 10, RespondedRequests: 8},
		LastActiveAt: now.Add(-24 * time.Hour),
	}
}

func TestScoreScenario(t *testing.T) {
	// 3 km away, exact specialty, rating 4.5, active yesterday, 8/10 responses:
	// 44 + 30 + 45 + 19 + 16 = 154.
	now := time.Now()
	got := Score(exactSeller(now), testRequest(), 3, now)
	if got != 154 {
		t.Errorf("Score() = %d, want 154", got)
	}
}

func TestScoreDistanceDecay(t *testing.T) {
	now := time.Now()
	req := testRequest()
	s := exactSeller(now)

	prev := Score(s, req, 0, now)
	for _, d := range []float64{1, 5, 10, 25, 40, 100} {
		got := Score(s, req, d, now)
		if got > prev {
			t.Errorf("score increased with distance: %d at %v km after %d", got, d, prev)
		}
		prev = got
	}

	// Beyond 25 km the distance component is exactly zero.
	at25 := Score(s, req, 25, now)
	at80 := Score(s, req, 80, now)
	if at25 != at80 {
		t.Errorf("distance component should be flat past 25 km: %d vs %d", at25, at80)
	}
}

func TestScoreMonotonicComponents(t *testing.T) {
	now := time.Now()
	req := testRequest()

	low := exactSeller(now)
	low.Stats.Rating = 2
	high := exactSeller(now)
	high.Stats.Rating = 5
	if Score(low, req, 5, now) >= Score(high, req, 5, now) {
		t.Error("higher rating must not score lower")
	}

	stale := exactSeller(now)
	stale.LastActiveAt = now.Add(-30 * 24 * time.Hour)
	if Score(stale, req, 5, now) >= Score(exactSeller(now), req, 5, now) {
		t.Error("staler activity must not score higher")
	}

	unresponsive := exactSeller(now)
	unresponsive.Stats.RespondedRequests = 0
	if Score(unresponsive, req, 5, now) >= Score(exactSeller(now), req, 5, now) {
		t.Error("lower responsiveness must not score higher")
	}
}

func TestScoreNoSpecialtyBonusForCategoryOnly(t *testing.T) {
	now := time.Now()
	req := testRequest()

	exact := exactSeller(now)
	categoryOnly := exactSeller(now)
	categoryOnly.Specialties = []seller.Specialty{{Category: "electronique", SubCategories: []string{"tablettes"}}}

	diff := Score(exact, req, 5, now) - Score(categoryOnly, req, 5, now)
	if diff != 30 {
		t.Errorf("exact specialty bonus = %d, want 30", diff)
	}
}

func TestScoreZeroHistorySeller(t *testing.T) {
	now := time.Now()
	s := &seller.Seller{LastActiveAt: now}
	// Fresh seller, no specialty match, far away: only recency contributes.
	got := Score(s, testRequest(), 30, now)
	if got != 20 {
		t.Errorf("Score() = %d, want 20 for a fresh seller", got)
	}
	if got < 0 {
		t.Errorf("score must be non-negative, got %d", got)
	}
}

func TestRankStable(t *testing.T) {
	candidates := []Candidate{
		{Seller: seller.Seller{ID: "nearest"}, Score: 80},
		{Seller: seller.Seller{ID: "middle"}, Score: 120},
		{Seller: seller.Seller{ID: "tied-near"}, Score: 80},
		{Seller: seller.Seller{ID: "tied-far"}, Score: 80},
	}

	Rank(candidates)

	wantOrder := []string{"middle", "nearest", "tied-near", "tied-far"}
	for i, want := range wantOrder {
		if candidates[i].Seller.ID != want {
			t.Fatalf("position %d = %s, want %s (ties must keep proximity order)", i, candidates[i].Seller.ID, want)
		}
	}
	if len(candidates) != 4 {
		t.Errorf("ranking must never drop candidates: got %d", len(candidates))
	}
}
