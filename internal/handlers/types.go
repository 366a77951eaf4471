package handlers

import "time"

// LinkBody is the public view of a link.
type LinkBody struct {
	Code        string     `doc:"The short code"                 example:"abc123"                             json:"code"`
	ShortURL    string     `doc:"The full short URL"             example:"http://localhost:8888/abc123"       json:"shortUrl"`
	OriginalURL string     `doc:"The original URL"               example:"https://example.com/very/long/path" json:"originalUrl"`
	CustomAlias bool       `doc:"Whether the code was chosen"    json:"customAlias"`
	CreatedAt   time.Time  `doc:"Creation time"                  json:"createdAt"`
	ExpiresAt   *time.Time `doc:"Expiry time, absent if never"   json:"expiresAt,omitempty"`
}

// ShortenRequest is the request body for creating a short link.
type ShortenRequest struct {
	Body struct {
		URL       string     `doc:"The URL to shorten"                           example:"https://example.com/very/long/path" json:"url"                 maxLength:"2048" minLength:"1"`
		Alias     string     `doc:"Custom code, 4 to 32 of [A-Za-z0-9_-]"        example:"promo-2026"                         json:"alias,omitempty"     required:"false"`
		ExpiresAt *time.Time `doc:"Expiry time; defaults to the service default" json:"expiresAt,omitempty"                   required:"false"`
	}
}

// ShortenResponse is the response for a successfully created short link.
type ShortenResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     LinkBody
}

// CodeRequest addresses a single link by its code.
type CodeRequest struct {
	Code string `doc:"The short code" example:"abc123" maxLength:"32" path:"code"`
}

// RedirectResponse sends the client to the original URL.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// StatsBody holds the counters of a link.
type StatsBody struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// StatsResponse is the response for link stats.
type StatsResponse struct {
	Body StatsBody
}

// UpdateRequest changes the target or expiry of a link.
type UpdateRequest struct {
	Code string `doc:"The short code" example:"abc123" maxLength:"32" path:"code"`
	Body struct {
		URL       *string    `doc:"New target URL" json:"url,omitempty"       maxLength:"2048" required:"false"`
		ExpiresAt *time.Time `doc:"New expiry"     json:"expiresAt,omitempty" required:"false"`
	}
}

// LinkResponse wraps a single link.
type LinkResponse struct {
	Body LinkBody
}

// SearchRequest looks links up by their original URL.
type SearchRequest struct {
	URL string `doc:"The original URL" example:"https://example.com/very/long/path" query:"url" required:"true"`
}

// SearchResponse lists the active links for a URL.
type SearchResponse struct {
	Body struct {
		Links []LinkBody `json:"links"`
	}
}
