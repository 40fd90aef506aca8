package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trouvly/trouvly-backend/internal/middleware"
	"github.com/trouvly/trouvly-backend/internal/taxonomy"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated connections and manages their rooms.
type WSHandler struct {
	hub      *Hub
	verifier *middleware.Verifier
}

// NewWSHandler wires the websocket endpoint.
func NewWSHandler(hub *Hub, verifier *middleware.Verifier) *WSHandler {
	return &WSHandler{hub: hub, verifier: verifier}
}

// clientMessage is what connected clients may send: room management only,
// the protocol is otherwise server push.
type clientMessage struct {
	Type string `json:"type"`
	Data struct {
		City       string `json:"city"`
		PostalCode string `json:"postal_code"`
		Name       string `json:"name"`
	} `json:"data"`
}

// Serve performs the handshake and runs the connection's read loop. The
// token travels as a query parameter because browsers cannot set headers on
// websocket upgrades.
func (h *WSHandler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	userID, role, err := h.verifier.Parse(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: ws}
	h.hub.join(UserRoom(userID), cl)
	if role == "seller" {
		h.hub.join(SellersRoom, cl)
	}

	h.hub.EmitToRoom(UserRoom(userID), "connected", echo.Map{"user_id": userID})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			h.hub.leaveAll(cl)
			_ = ws.Close()
			return nil
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "join_region":
			if msg.Data.City != "" {
				h.hub.join(RegionRoom(msg.Data.City, msg.Data.PostalCode), cl)
			}
		case "leave_region":
			h.hub.leave(RegionRoom(msg.Data.City, msg.Data.PostalCode), cl)
		case "join_category":
			if taxonomy.IsValidCategory(msg.Data.Name) {
				h.hub.join(CategoryRoom(msg.Data.Name), cl)
			}
		case "leave_category":
			h.hub.leave(CategoryRoom(msg.Data.Name), cl)
		}
	}
}
