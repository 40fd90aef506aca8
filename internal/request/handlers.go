package request

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/seller"
)

// MatchEnqueuer schedules the matching+notification pipeline for a request.
// The enqueue must return quickly; the pipeline itself runs detached.
type MatchEnqueuer interface {
	EnqueueMatchDispatch(ctx context.Context, requestID string) error
}

// Notifier delivers the secondary notifications the request lifecycle emits.
type Notifier interface {
	RequestCancelled(ctx context.Context, r *Request)
	SellerResponded(ctx context.Context, r *Request, s *seller.Seller, message string)
}

// Handler exposes the request HTTP surface.
type Handler struct {
	store    *Store
	sellers  *seller.Store
	enqueuer MatchEnqueuer
	notifier Notifier
	validate *validator.Validate
}

// NewHandler wires the request handlers.
func NewHandler(store *Store, sellers *seller.Store, enqueuer MatchEnqueuer, notifier Notifier) *Handler {
	return &Handler{
		store:    store,
		sellers:  sellers,
		enqueuer: enqueuer,
		notifier: notifier,
		validate: validator.New(),
	}
}

// Create persists a new request and schedules seller matching. The response
// never waits on the pipeline: a persisted request is a success regardless of
// what the notification pass later does.
func (h *Handler) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := req.ValidateDomain(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	now := time.Now()
	r := &Request{
		ID:          uuid.New().String(),
		UserID:      uid,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Location:    req.Location,
		Address:     req.Address,
		City:        req.City,
		PostalCode:  req.PostalCode,
		RadiusKm:    req.RadiusKm,
		Status:      StatusActive,
		Priority:    priority,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Photos:      photos,
		Tags:        req.NormalizeTags(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(DefaultTTL),
	}
	if err := h.store.Create(c.Request().Context(), r); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create request"})
	}

	// Matching runs detached. A failed enqueue is logged, never surfaced.
	if err := h.enqueuer.EnqueueMatchDispatch(c.Request().Context(), r.ID); err != nil {
		log.Printf("[request] failed to enqueue match dispatch for %s: %v", r.ID, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"request": r})
}

// Get returns a request and counts the view when the viewer is not the author.
func (h *Handler) Get(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	r, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch request"})
	}

	if uid != r.UserID {
		if err := h.store.IncrementViews(c.Request().Context(), r.ID); err != nil {
			log.Printf("[request] failed to count view on %s: %v", r.ID, err)
		} else {
			r.ViewsCount++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"request": r})
}

// ListMine returns the authenticated user's requests.
func (h *Handler) ListMine(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	requests, err := h.store.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// Cancel transitions an active request to cancelled and tells the category
// room so seller feeds can drop it.
func (h *Handler) Cancel(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	err := h.store.UpdateStatus(c.Request().Context(), id, uid, StatusCancelled)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active request to cancel"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not cancel request"})
	}

	if r, err := h.store.GetByID(c.Request().Context(), id); err == nil {
		h.notifier.RequestCancelled(c.Request().Context(), r)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusCancelled})
}

// Complete transitions an active request to completed.
func (h *Handler) Complete(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	err := h.store.UpdateStatus(c.Request().Context(), c.Param("id"), uid, StatusCompleted)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active request to complete"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not complete request"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": StatusCompleted})
}

// Respond records a seller's response to a request and notifies the author.
// Pending sellers are discoverable but may not respond yet.
func (h *Handler) Respond(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	s, err := h.sellers.GetByUserID(c.Request().Context(), uid)
	if errors.Is(err, seller.ErrNotFound) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "seller profile required"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seller profile"})
	}
	if s.Status != seller.StatusActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "seller profile is not active yet"})
	}

	r, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch request"})
	}
	if r.Status != StatusActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is no longer active"})
	}

	if err := h.store.IncrementResponses(c.Request().Context(), r.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record response"})
	}
	if err := h.sellers.RecordResponse(c.Request().Context(), s.ID); err != nil {
		log.Printf("[request] failed to record seller response stats for %s: %v", s.ID, err)
	}

	h.notifier.SellerResponded(c.Request().Context(), r, s, body.Message)
	return c.JSON(http.StatusOK, echo.Map{"message": "response recorded"})
}

// nearbyItem is a feed entry annotated with the seller's distance.
type nearbyItem struct {
	Request    Request `json:"request"`
	DistanceKm float64 `json:"distance_km"`
}

// NearbyFeed returns active requests whose search radius covers the
// authenticated seller's location.
func (h *Handler) NearbyFeed(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	s, err := h.sellers.GetByUserID(c.Request().Context(), uid)
	if errors.Is(err, seller.ErrNotFound) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "seller profile required"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load seller profile"})
	}

	requests, err := h.store.FindNearbyActive(c.Request().Context(), s.Location.Lat, s.Location.Lng, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch nearby requests"})
	}

	items := make([]nearbyItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, nearbyItem{
			Request:    r,
			DistanceKm: geo.RoundKm(s.Location.DistanceTo(r.Location)),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": items})
}
