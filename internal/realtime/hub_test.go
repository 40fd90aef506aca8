package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trouvly/trouvly-backend/internal/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, id, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id, "role": role})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func startWS(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	handler := NewWSHandler(hub, middleware.NewVerifier(testSecret))
	e := echo.New()
	e.GET("/ws", handler.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		t.Fatalf("parse frame: %v", err)
	}
	return evt
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHandshakeJoinsUserRoom(t *testing.T) {
	hub, srv := startWS(t)
	conn := dial(t, srv, signToken(t, "u1", "user"))

	evt := readEvent(t, conn)
	if evt.Type != "connected" {
		t.Errorf("first frame = %s, want connected", evt.Type)
	}
	if hub.RoomSize(UserRoom("u1")) != 1 {
		t.Errorf("user room size = %d, want 1", hub.RoomSize(UserRoom("u1")))
	}
	if hub.RoomSize(SellersRoom) != 0 {
		t.Error("plain user must not join the sellers room")
	}
}

func TestSellerJoinsSellersRoom(t *testing.T) {
	hub, srv := startWS(t)
	conn := dial(t, srv, signToken(t, "u2", "seller"))
	readEvent(t, conn)

	if hub.RoomSize(SellersRoom) != 1 {
		t.Errorf("sellers room size = %d, want 1", hub.RoomSize(SellersRoom))
	}
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	_, srv := startWS(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected handshake rejection for invalid token")
	}
}

func TestEmitToRoomDelivers(t *testing.T) {
	hub, srv := startWS(t)
	conn := dial(t, srv, signToken(t, "u3", "user"))
	readEvent(t, conn)

	if !hub.EmitToRoom(UserRoom("u3"), "new_request", map[string]string{"id": "r1"}) {
		t.Fatal("emit to a joined room should report delivery")
	}

	evt := readEvent(t, conn)
	if evt.Type != "new_request" {
		t.Errorf("frame type = %s, want new_request", evt.Type)
	}
}

func TestEmitToEmptyRoom(t *testing.T) {
	hub := NewHub()
	if hub.EmitToRoom(UserRoom("nobody"), "new_request", nil) {
		t.Error("emit to an empty room must report false")
	}
}

func TestJoinCategoryRoom(t *testing.T) {
	hub, srv := startWS(t)
	conn := dial(t, srv, signToken(t, "u4", "seller"))
	readEvent(t, conn)

	msg := `{"type":"join_category","data":{"name":"electronique"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write join_category: %v", err)
	}
	waitFor(t, func() bool { return hub.RoomSize(CategoryRoom("electronique")) == 1 },
		"category room never gained the member")

	// Unknown categories are ignored.
	msg = `{"type":"join_category","data":{"name":"not-a-category"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write join_category: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if hub.RoomSize(CategoryRoom("not-a-category")) != 0 {
		t.Error("unknown category room should stay empty")
	}
}

func TestDisconnectLeavesRooms(t *testing.T) {
	hub, srv := startWS(t)
	conn := dial(t, srv, signToken(t, "u5", "seller"))
	readEvent(t, conn)

	_ = conn.Close()
	waitFor(t, func() bool {
		return hub.RoomSize(UserRoom("u5")) == 0 && hub.RoomSize(SellersRoom) == 0
	}, "disconnect did not clear room membership")
}

func TestConcurrentJoinLeave(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &client{}
			hub.join("room-a", c)
			hub.join("room-b", c)
			hub.leave("room-a", c)
			hub.leaveAll(c)
		}()
	}
	wg.Wait()

	if hub.RoomSize("room-a") != 0 || hub.RoomSize("room-b") != 0 {
		t.Errorf("rooms not empty after concurrent churn: a=%d b=%d",
			hub.RoomSize("room-a"), hub.RoomSize("room-b"))
	}
}
