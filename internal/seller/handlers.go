package seller

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trouvly/trouvly-backend/internal/geo"
	"github.com/trouvly/trouvly-backend/internal/taxonomy"
)

// Handler exposes the seller HTTP surface.
type Handler struct {
	store    *Store
	validate *validator.Validate
}

// NewHandler wires the seller handlers.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store, validate: validator.New()}
}

// RegisterRequest is the payload for creating a seller profile.
type RegisterRequest struct {
	BusinessName    string      `json:"business_name" validate:"required,min=2,max=120"`
	Description     string      `json:"description" validate:"max=2000"`
	Phone           string      `json:"phone" validate:"max=30"`
	Location        geo.Point   `json:"location"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	PostalCode      string      `json:"postal_code"`
	ServiceRadiusKm int         `json:"service_radius_km" validate:"required,min=1,max=100"`
	Specialties     []Specialty `json:"specialties" validate:"required,min=1"`
}

// Register creates the seller profile for the authenticated user. New
// profiles start in pending status.
func (h *Handler) Register(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := req.Location.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	for _, sp := range req.Specialties {
		if len(sp.SubCategories) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each specialty needs at least one subcategory"})
		}
		for _, sub := range sp.SubCategories {
			if !taxonomy.IsValidPair(sp.Category, sub) {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "unknown category/subcategory pair: " + sp.Category + "/" + sub,
				})
			}
		}
	}

	if _, err := h.store.GetByUserID(c.Request().Context(), uid); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seller profile already exists"})
	} else if !errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not check seller profile"})
	}

	now := time.Now()
	s := &Seller{
		ID:              uuid.New().String(),
		UserID:          uid,
		BusinessName:    req.BusinessName,
		Description:     req.Description,
		Phone:           req.Phone,
		Location:        req.Location,
		Address:         req.Address,
		City:            req.City,
		PostalCode:      req.PostalCode,
		ServiceRadiusKm: req.ServiceRadiusKm,
		Specialties:     req.Specialties,
		Status:          StatusPending,
		IsAvailable:     true,
		LastActiveAt:    now,
		CreatedAt:       now,
	}
	if err := h.store.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seller profile"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"seller": s})
}

// Me returns the authenticated user's seller profile.
func (h *Handler) Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	s, err := h.store.GetByUserID(c.Request().Context(), uid)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no seller profile"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch seller profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seller": s})
}

// SetAvailability toggles whether the seller is currently taking requests.
func (h *Handler) SetAvailability(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err := h.store.SetAvailability(c.Request().Context(), uid, req.IsAvailable)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no seller profile"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"is_available": req.IsAvailable})
}

// SetPushToken stores the seller's device token for the push channel.
func (h *Handler) SetPushToken(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	err := h.store.SetPushToken(c.Request().Context(), uid, req.PushToken)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no seller profile"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update push token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "push token updated"})
}
