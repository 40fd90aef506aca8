// Package pipeline runs the request→matching→notification pass as a queued
// job, detached from the HTTP response that triggered it.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/trouvly/trouvly-backend/internal/matching"
	"github.com/trouvly/trouvly-backend/internal/notify"
	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/user"
)

// RequestSource loads the request being matched.
type RequestSource interface {
	GetByID(ctx context.Context, id string) (*request.Request, error)
}

// AuthorSource loads the request author for display info and the
// confirmation notification.
type AuthorSource interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Runner executes one matching+notification pass. It owns the error
// recovery the spec requires: nothing that happens here may surface to the
// request creator.
type Runner struct {
	requests    RequestSource
	users       AuthorSource
	engine      *matching.Engine
	coordinator *notify.Coordinator
}

// NewRunner wires a pipeline runner.
func NewRunner(requests RequestSource, users AuthorSource, engine *matching.Engine, coordinator *notify.Coordinator) *Runner {
	return &Runner{requests: requests, users: users, engine: engine, coordinator: coordinator}
}

// Run matches the request and fans notifications out. Matching failures are
// recovered into a zero-notified confirmation with the real cause logged;
// the pass is never retried.
func (r *Runner) Run(ctx context.Context, requestID string) error {
	req, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request %s: %w", requestID, err)
	}

	author, err := r.users.GetByID(ctx, req.UserID)
	if err != nil {
		log.Printf("[pipeline] failed to load author %s: %v", req.UserID, err)
		author = &user.User{ID: req.UserID}
	}

	candidates, err := r.engine.FindMatchingSellers(ctx, req)
	if err != nil {
		// The request itself stands; the author just learns nobody was
		// notified.
		log.Printf("[pipeline] matching failed for request %s: %v", requestID, err)
		r.coordinator.Dispatch(ctx, req, author, nil)
		return nil
	}

	res := r.coordinator.Dispatch(ctx, req, author, candidates)
	log.Printf("[pipeline] request %s: notified %d/%d sellers", requestID, res.NotifiedCount, res.TotalCandidates)
	return nil
}
