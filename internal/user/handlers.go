package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenWriter persists a user's device token.
type TokenWriter interface {
	SetPushToken(ctx context.Context, id, token string) error
}

// Handler exposes the user HTTP surface.
type Handler struct {
	store TokenWriter
}

// NewHandler wires the user handlers.
func NewHandler(store TokenWriter) *Handler {
	return &Handler{store: store}
}

// SetPushToken stores the account-level device token. This token backs the
// author's push confirmation and is the fallback for sellers that never set
// their own. An empty token clears it.
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
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update push token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "push token updated"})
}
