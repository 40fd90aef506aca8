package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PushMessage is one device-token-addressed notification.
type PushMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

// pushReceipt mirrors the provider's per-message response entry.
type pushReceipt struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type pushResponse struct {
	Data []pushReceipt `json:"data"`
}

// PushClient delivers notifications through the Expo-compatible push API.
// Delivery is store-and-forward: a successful submission is not a delivery
// confirmation.
type PushClient struct {
	endpoint  string
	batchSize int
	http      *http.Client
}

// NewPushClient creates a client for the given endpoint.
func NewPushClient(endpoint string, batchSize int) *PushClient {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PushClient{
		endpoint:  endpoint,
		batchSize: batchSize,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidateToken reports whether a token is syntactically a device token.
// An invalid token means "push unavailable", never an error.
func (p *PushClient) ValidateToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]")
}

// Send submits a single message.
func (p *PushClient) Send(ctx context.Context, msg PushMessage) error {
	receipts, err := p.post(ctx, []PushMessage{msg})
	if err != nil {
		return err
	}
	if len(receipts) > 0 && receipts[0].Status != "ok" {
		return fmt.Errorf("push rejected: %s", receipts[0].Message)
	}
	return nil
}

// SendBatch submits messages in provider-sized chunks. Chunk failures do not
// abort the remaining chunks; the first error is reported after all chunks
// were attempted.
func (p *PushClient) SendBatch(ctx context.Context, msgs []PushMessage) error {
	var firstErr error
	for start := 0; start < len(msgs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		if _, err := p.post(ctx, msgs[start:end]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *PushClient) post(ctx context.Context, msgs []PushMessage) ([]pushReceipt, error) {
	body, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read push response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push service returned %d: %s", resp.StatusCode, raw)
	}

	var parsed pushResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse push response: %w", err)
	}
	return parsed.Data, nil
}
