// Package notify builds notification payloads and fans them out over the
// session and push channels.
package notify

import (
	"time"
	"unicode/utf8"

	"github.com/trouvly/trouvly-backend/internal/request"
)

// Kind discriminates notification payloads. Every payload struct carries its
// Kind in the `type` field so channel consumers can switch on it.
type Kind string

const (
	KindNewRequest       Kind = "new_request"
	KindRequestConfirmed Kind = "request_created_confirmation"
	KindRequestCancelled Kind = "request_cancelled"
	KindSellerResponse   Kind = "seller_response"
)

// descriptionLimit caps the request description carried in payloads.
const descriptionLimit = 160

// maxPayloadPhotos caps how many photo URLs ride along.
const maxPayloadPhotos = 3

// RequestSummary is the request view embedded in notifications.
type RequestSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	City        string   `json:"city,omitempty"`
	Priority    string   `json:"priority"`
	Urgent      bool     `json:"urgent"`
	Photos      []string `json:"photos,omitempty"`
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// Summarize builds the shared request view: truncated description, at most
// three photos.
func Summarize(r *request.Request) RequestSummary {
	desc := truncate(r.Description, descriptionLimit)
	photos := r.Photos
	if len(photos) > maxPayloadPhotos {
		photos = photos[:maxPayloadPhotos]
	}
	return RequestSummary{
		ID:          r.ID,
		Title:       r.Title,
		Description: desc,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		City:        r.City,
		Priority:    r.Priority,
		Urgent:      r.IsUrgent(),
		Photos:      photos,
	}
}

// AuthorInfo is the request author's display info.
type AuthorInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SellerRef identifies the candidate a personalized payload targets.
type SellerRef struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// MatchMetadata carries the per-candidate annotations.
type MatchMetadata struct {
	DistanceKm     float64   `json:"distance_km"`
	MatchScore     int       `json:"match_score"`
	NotificationID string    `json:"notification_id"`
	SentAt         time.Time `json:"sent_at"`
}

// NewRequest is the payload each matched seller receives.
type NewRequest struct {
	Type     Kind           `json:"type"`
	Request  RequestSummary `json:"request"`
	Author   AuthorInfo     `json:"author"`
	Seller   SellerRef      `json:"seller"`
	Metadata MatchMetadata  `json:"metadata"`
}

// RequestConfirmation goes back to the author once fan-out settles. A zero
// notified count is a valid outcome carried with an explanatory message,
// never an error.
type RequestConfirmation struct {
	Type            Kind      `json:"type"`
	RequestID       string    `json:"request_id"`
	NotifiedCount   int       `json:"notified_count"`
	TotalCandidates int       `json:"total_candidates"`
	Message         string    `json:"message"`
	SentAt          time.Time `json:"sent_at"`
}

// RequestCancelled is broadcast to the request's category room.
type RequestCancelled struct {
	Type      Kind      `json:"type"`
	RequestID string    `json:"request_id"`
	Category  string    `json:"category"`
	SentAt    time.Time `json:"sent_at"`
}

// SellerResponse tells the author a seller responded to their request.
type SellerResponse struct {
	Type         Kind      `json:"type"`
	RequestID    string    `json:"request_id"`
	Seller       SellerRef `json:"seller"`
	BusinessName string    `json:"business_name"`
	Message      string    `json:"message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}
