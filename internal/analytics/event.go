package analytics

import "time"

const (
	TopicURLCreated  = "url.created"
	TopicURLAccessed = "url.accessed"
)

// URLCreatedEvent represents an event emitted when a URL is shortened.
type URLCreatedEvent struct {
	Code            string    `json:"code"`
	OriginalURL     string    `json:"originalUrl"`
	ValidityMinutes int       `json:"validity"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	ClientIP        string    `json:"clientIp"`
	UserAgent       string    `json:"userAgent"`
}

// URLAccessedEvent represents an event emitted when a short URL redirects.
type URLAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}
