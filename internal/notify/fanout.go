package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/trouvly/trouvly-backend/internal/matching"
	"github.com/trouvly/trouvly-backend/internal/realtime"
	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/seller"
	"github.com/trouvly/trouvly-backend/internal/user"
)

// SessionChannel is the live room-based transport. Emit success for the
// seller's private room is what "notified" means.
type SessionChannel interface {
	EmitToRoom(room, event string, payload interface{}) bool
}

// PushChannel is the device-token transport, best-effort only. Candidate
// messages go out in one batch; the author confirmation is a single send.
type PushChannel interface {
	ValidateToken(token string) bool
	Send(ctx context.Context, msg PushMessage) error
	SendBatch(ctx context.Context, msgs []PushMessage) error
}

// SellerStats records per-seller notification counters. Increments must be
// atomic at the store layer: many dispatch goroutines run at once.
type SellerStats interface {
	IncrementNotified(ctx context.Context, sellerID string) error
}

// Result tallies one fan-out pass.
type Result struct {
	NotifiedCount   int `json:"notified_count"`
	TotalCandidates int `json:"total_candidates"`
}

// Coordinator fans a request out to its ranked candidates over both
// channels, then confirms the outcome to the author.
type Coordinator struct {
	session SessionChannel
	push    PushChannel
	stats   SellerStats
}

// NewCoordinator wires the fan-out coordinator.
func NewCoordinator(session SessionChannel, push PushChannel, stats SellerStats) *Coordinator {
	return &Coordinator{session: session, push: push, stats: stats}
}

// Dispatch notifies every candidate concurrently and, once all attempts have
// settled, sends the author a confirmation. It never aborts early: one
// candidate's failure is isolated to that candidate. All dispatches are
// issued before any is awaited, so wall-clock time is bounded by the slowest
// single delivery, not the sum.
func (co *Coordinator) Dispatch(ctx context.Context, req *request.Request, author *user.User, candidates []matching.Candidate) Result {
	base := Summarize(req)
	authorInfo := AuthorInfo{ID: author.ID, Name: author.Name}

	var notified int64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var pushes []PushMessage
	for _, cand := range candidates {
		wg.Add(1)
		go func(cand matching.Candidate) {
			defer wg.Done()
			ok, msg := co.dispatchOne(ctx, base, authorInfo, cand)
			if ok {
				atomic.AddInt64(&notified, 1)
			}
			if msg != nil {
				mu.Lock()
				pushes = append(pushes, *msg)
				mu.Unlock()
			}
		}(cand)
	}
	wg.Wait()

	// Best-effort channel, one provider call for the whole candidate set.
	if len(pushes) > 0 {
		if err := co.push.SendBatch(ctx, pushes); err != nil {
			log.Printf("[notify] push batch delivery failed for request %s: %v", req.ID, err)
		}
	}

	res := Result{NotifiedCount: int(notified), TotalCandidates: len(candidates)}
	co.confirmToAuthor(ctx, req, author, res)
	return res
}

// dispatchOne delivers one candidate's personalized payload over the session
// channel and builds the push message for the batch. The session emit decides
// success; a nil message means the candidate has no valid token. The stats
// increment happens regardless.
func (co *Coordinator) dispatchOne(ctx context.Context, base RequestSummary, author AuthorInfo, cand matching.Candidate) (bool, *PushMessage) {
	payload := NewRequest{
		Type:    KindNewRequest,
		Request: base,
		Author:  author,
		Seller:  SellerRef{ID: cand.Seller.ID, UserID: cand.Seller.UserID},
		Metadata: MatchMetadata{
			DistanceKm:     cand.DistanceKm,
			MatchScore:     cand.Score,
			NotificationID: uuid.New().String(),
			SentAt:         time.Now(),
		},
	}

	ok := co.session.EmitToRoom(realtime.UserRoom(cand.Seller.UserID), string(KindNewRequest), payload)
	if !ok {
		log.Printf("[notify] session delivery failed for seller %s (request %s)", cand.Seller.ID, base.ID)
	}

	var msg *PushMessage
	if co.push.ValidateToken(cand.PushToken) {
		title := "Nouvelle demande : " + base.Title
		if base.Urgent {
			title = "Demande urgente : " + base.Title
		}
		msg = &PushMessage{
			To:    cand.PushToken,
			Title: title,
			Body:  base.Description,
			Data: map[string]string{
				"type":        string(KindNewRequest),
				"request_id":  base.ID,
				"distance_km": strconv.FormatFloat(cand.DistanceKm, 'f', 1, 64),
				"match_score": strconv.Itoa(cand.Score),
			},
			Sound:    "default",
			Priority: "high",
		}
	}

	if err := co.stats.IncrementNotified(ctx, cand.Seller.ID); err != nil {
		log.Printf("[notify] failed to bump notified counter for seller %s: %v", cand.Seller.ID, err)
	}

	return ok, msg
}

// confirmToAuthor reports the fan-out outcome back to the request's author.
func (co *Coordinator) confirmToAuthor(ctx context.Context, req *request.Request, author *user.User, res Result) {
	msg := fmt.Sprintf("%d vendeurs ont été notifiés de votre demande.", res.NotifiedCount)
	if res.NotifiedCount == 0 {
		msg = "Aucun vendeur disponible dans votre zone pour le moment. Votre demande reste visible et les vendeurs pourront y répondre."
	}

	payload := RequestConfirmation{
		Type:            KindRequestConfirmed,
		RequestID:       req.ID,
		NotifiedCount:   res.NotifiedCount,
		TotalCandidates: res.TotalCandidates,
		Message:         msg,
		SentAt:          time.Now(),
	}
	co.session.EmitToRoom(realtime.UserRoom(author.ID), string(KindRequestConfirmed), payload)

	if co.push.ValidateToken(author.PushToken) {
		err := co.push.Send(ctx, PushMessage{
			To:    author.PushToken,
			Title: "Votre demande est en ligne",
			Body:  msg,
			Data:  map[string]string{"type": string(KindRequestConfirmed), "request_id": req.ID},
		})
		if err != nil {
			log.Printf("[notify] push confirmation failed for user %s: %v", author.ID, err)
		}
	}
}

// RequestCancelled broadcasts a cancellation to the request's category room.
func (co *Coordinator) RequestCancelled(ctx context.Context, r *request.Request) {
	co.session.EmitToRoom(realtime.CategoryRoom(r.Category), string(KindRequestCancelled), RequestCancelled{
		Type:      KindRequestCancelled,
		RequestID: r.ID,
		Category:  r.Category,
		SentAt:    time.Now(),
	})
}

// SellerResponded tells the author a seller answered their request.
func (co *Coordinator) SellerResponded(ctx context.Context, r *request.Request, s *seller.Seller, message string) {
	co.session.EmitToRoom(realtime.UserRoom(r.UserID), string(KindSellerResponse), SellerResponse{
		Type:         KindSellerResponse,
		RequestID:    r.ID,
		Seller:       SellerRef{ID: s.ID, UserID: s.UserID},
		BusinessName: s.BusinessName,
		Message:      message,
		SentAt:       time.Now(),
	})
}
