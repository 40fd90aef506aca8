package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestValidateToken(t *testing.T) {
	p := NewPushClient("http://unused", 100)

	tests := []struct {
		token string
		want  bool
	}{
		{"ExponentPushToken[xxxxxxxx]", true},
		{"ExponentPushToken[]", true},
		{"ExponentPushToken[abc", false},
		{"fcm-token-123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.ValidateToken(tt.token); got != tt.want {
			t.Errorf("ValidateToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestSendOK(t *testing.T) {
	var gotBody []PushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(pushResponse{Data: []pushReceipt{{Status: "ok", ID: "ticket-1"}}})
	}))
	defer srv.Close()

	p := NewPushClient(srv.URL, 100)
	err := p.Send(context.Background(), PushMessage{To: "ExponentPushToken[a]", Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(gotBody) != 1 || gotBody[0].To != "ExponentPushToken[a]" {
		t.Errorf("server received %+v", gotBody)
	}
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pushResponse{Data: []pushReceipt{{Status: "error", Message: "DeviceNotRegistered"}}})
	}))
	defer srv.Close()

	p := NewPushClient(srv.URL, 100)
	err := p.Send(context.Background(), PushMessage{To: "ExponentPushToken[a]"})
	if err == nil {
		t.Fatal("expected error for rejected message")
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPushClient(srv.URL, 100)
	if err := p.Send(context.Background(), PushMessage{To: "ExponentPushToken[a]"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSendBatchChunks(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		_ = json.NewEncoder(w).Encode(pushResponse{})
	}))
	defer srv.Close()

	p := NewPushClient(srv.URL, 2)
	msgs := make([]PushMessage, 5)
	for i := range msgs {
		msgs[i] = PushMessage{To: "ExponentPushToken[x]"}
	}
	if err := p.SendBatch(context.Background(), msgs); err != nil {
		t.Fatalf("SendBatch() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("batch posts = %d, want 3 (sizes 2+2+1)", calls)
	}
}
