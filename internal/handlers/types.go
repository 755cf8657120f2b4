package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL       string `doc:"The URL to shorten"                                 example:"https://example.com/very/long/path" json:"url"`
		Validity  int    `doc:"Minutes until the link expires, 30 when omitted"    example:"30"                                 json:"validity,omitempty"  maximum:"52560000" minimum:"1"`
		Shortcode string `doc:"Optional custom code of 3-10 alphanumeric characters" example:"promo24"                          json:"shortcode,omitempty" pattern:"^[a-zA-Z0-9]{3,10}$"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		ShortLink string    `doc:"The full short URL"       example:"http://localhost:8888/abc123" json:"shortLink"`
		Expiry    time.Time `doc:"When the short URL stops redirecting"                            json:"expiry"`
	}
}

// StatisticsRequest identifies the short URL whose statistics are requested.
type StatisticsRequest struct {
	Shortcode string `doc:"The short code" example:"abc123" path:"shortcode"`
}

// ClickDetail is one recorded redirect.
type ClickDetail struct {
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer"`
	Location  string    `json:"location"`
	UserAgent string    `json:"userAgent"`
}

// StatisticsResponse reports a short URL and every click recorded for it.
type StatisticsResponse struct {
	Body struct {
		Shortcode    string        `json:"shortcode"`
		OriginalURL  string        `json:"originalUrl"`
		CreatedAt    time.Time     `json:"createdAt"`
		ExpiresAt    time.Time     `json:"expiresAt"`
		TotalClicks  int           `json:"totalClicks"`
		ClickDetails []ClickDetail `json:"clickDetails"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Shortcode string `doc:"The short code" example:"abc123" path:"shortcode"`
}

// RedirectResponse sends the client to the original URL and forbids caching the redirect.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
	Pragma       string `header:"Pragma"`
	Expires      string `header:"Expires"`
}
