package shortener

import "time"

// DefaultValidityMinutes is applied when a create request carries no validity.
const DefaultValidityMinutes = 30

// MaxValidityMinutes is the longest accepted validity, one hundred years.
const MaxValidityMinutes = 100 * 365 * 24 * 60

// Code represents a short URL code.
type Code string

// URLRecord maps a short code to the URL it redirects to.
type URLRecord struct {
	Code            Code      `json:"shortcode"`
	OriginalURL     string    `json:"originalUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	ValidityMinutes int       `json:"validity"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (r *URLRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// ClickRecord is one observed redirect. Records are append-only.
type ClickRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Location  string    `json:"location"`
}

// Analytics accumulates the clicks recorded for a single code.
// TotalClicks always equals len(Clicks).
type Analytics struct {
	TotalClicks int           `json:"totalClicks"`
	Clicks      []ClickRecord `json:"clicks"`
}

// EmptyAnalytics is returned for codes that were never clicked.
func EmptyAnalytics() *Analytics {
	return &Analytics{TotalClicks: 0, Clicks: []ClickRecord{}}
}
