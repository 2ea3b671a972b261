package crawler

import (
	"net/http"
	"net/url"
	"time"
)

// Page is the raw result returned by a Fetcher.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentLength returns the body size.
func (p Page) ContentLength() int {
	return len(p.Body)
}

// SingleCrawl is produced once per fetched URL. Links are raw outbound URLs,
// not yet filtered against policy or the visited set.
type SingleCrawl struct {
	URL   *url.URL
	IsHit bool
	Links []*url.URL
	// Canceled marks a fetch cut short by the crawl context; it is neither
	// a hit nor a miss.
	Canceled bool
}

// Result accumulates the outcome of a crawl in the order pages were admitted.
type Result struct {
	Hits   []string
	Misses []string
	// Visited is the number of canonical keys admitted.
	Visited int
	// Levels is the number of levels that admitted at least one URL.
	Levels int
}
