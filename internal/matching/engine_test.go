package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/seller"
)

type fakeSellerSource struct {
	sellers  []seller.Seller
	err      error
	gotQuery seller.NearbyQuery
}

func (f *fakeSellerSource) FindNearby(_ context.Context, q seller.NearbyQuery) ([]seller.Seller, error) {
	f.gotQuery = q
	return f.sellers, f.err
}

// sellerAt builds an available active seller offset north of the request
// location by roughly km kilometers.
func sellerAt(id string, km float64, specialties []seller.Specialty) seller.Seller {
	return seller.Seller{
		ID:           id,
		UserID:       "user-" + id,
		Location:     geo.Point{Lat: 48.85 + km*0.008993, Lng: 2.35},
		Status:       seller.StatusActive,
		IsAvailable:  true,
		Specialties:  specialties,
		LastActiveAt: time.Now(),
	}
}

func exactMatch() []seller.Specialty {
	return []seller.Specialty{{Category: "electronique", SubCategories: []string{"smartphones"}}}
}

func TestFindMatchingSellersPredicate(t *testing.T) {
	src := &fakeSellerSource{sellers: []seller.Seller{
		sellerAt("close-exact", 3, exactMatch()),
		sellerAt("category-only", 2, []seller.Specialty{{Category: "electronique", SubCategories: []string{"tablettes"}}}),
		sellerAt("too-far", 30, exactMatch()),
	}}
	engine := NewEngine(src)

	candidates, err := engine.FindMatchingSellers(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("FindMatchingSellers() error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].Seller.ID != "close-exact" {
		t.Errorf("candidate = %s, want close-exact", candidates[0].Seller.ID)
	}
	if candidates[0].DistanceKm < 2.5 || candidates[0].DistanceKm > 3.5 {
		t.Errorf("annotated distance = %v km, want ~3", candidates[0].DistanceKm)
	}
	if candidates[0].Score <= 0 {
		t.Errorf("candidate score = %d, want positive", candidates[0].Score)
	}
}

func TestFindMatchingSellersQueryShape(t *testing.T) {
	src := &fakeSellerSource{}
	engine := NewEngine(src)

	req := testRequest()
	if _, err := engine.FindMatchingSellers(context.Background(), req); err != nil {
		t.Fatalf("FindMatchingSellers() error: %v", err)
	}

	q := src.gotQuery
	if q.RadiusMeters != 10000 {
		t.Errorf("radius = %v meters, want 10000", q.RadiusMeters)
	}
	if !q.AvailableOnly {
		t.Error("query must filter on availability")
	}
	if q.Category != "electronique" || q.SubCategory != "smartphones" {
		t.Errorf("query filter = %s/%s, want electronique/smartphones", q.Category, q.SubCategory)
	}
	// Pending sellers remain discoverable.
	foundPending := false
	for _, s := range q.Statuses {
		if s == seller.StatusPending {
			foundPending = true
		}
		if s == seller.StatusSuspended || s == seller.StatusInactive {
			t.Errorf("status %s must not be discoverable", s)
		}
	}
	if !foundPending {
		t.Error("pending sellers should be discoverable")
	}
}

func TestFindMatchingSellersTokenPassthrough(t *testing.T) {
	s := sellerAt("with-token", 2, exactMatch())
	s.PushToken = "ExponentPushToken[abc]"
	src := &fakeSellerSource{sellers: []seller.Seller{s}}

	candidates, err := NewEngine(src).FindMatchingSellers(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("FindMatchingSellers() error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].PushToken != "ExponentPushToken[abc]" {
		t.Errorf("resolved token not carried onto the candidate: %+v", candidates)
	}
}

func TestFindMatchingSellersRankedStable(t *testing.T) {
	// Nearest-first input; the two identical sellers tie on score and must
	// keep their proximity order after ranking.
	near := sellerAt("tie-near", 4, exactMatch())
	far := sellerAt("tie-far", 4.001, exactMatch())
	best := sellerAt("best", 1, exactMatch())
	best.Stats.Rating = 5

	src := &fakeSellerSource{sellers: []seller.Seller{best, near, far}}
	candidates, err := NewEngine(src).FindMatchingSellers(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("FindMatchingSellers() error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	if candidates[0].Seller.ID != "best" {
		t.Errorf("top candidate = %s, want best", candidates[0].Seller.ID)
	}
	if candidates[1].Seller.ID != "tie-near" || candidates[2].Seller.ID != "tie-far" {
		t.Errorf("tied candidates reordered: %s then %s", candidates[1].Seller.ID, candidates[2].Seller.ID)
	}
}

func TestFindMatchingSellersPropagatesStoreError(t *testing.T) {
	src := &fakeSellerSource{err: errors.New("connection refused")}
	_, err := NewEngine(src).FindMatchingSellers(context.Background(), testRequest())
	if err == nil {
		t.Fatal("store error must propagate, not be masked as empty results")
	}
}
