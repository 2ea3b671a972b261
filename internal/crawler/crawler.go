package crawler

import (
	"net/url"
	"regexp"
	"time"
)

// DefaultRequestTimeout bounds a single page request.
const DefaultRequestTimeout = 8 * time.Second

// BasicAuth holds credentials attached to every request.
type BasicAuth struct {
	User string
	Pass string
}

// Config holds the settings for one crawl. It is built once by the config
// loader and never mutated while a crawl runs.
type Config struct {
	Seeds          []*url.URL
	Blacklist      []*regexp.Regexp
	Whitelist      []*regexp.Regexp
	SuperBlacklist []*regexp.Regexp
	MatchSelector  Selector
	LinkSelector   Selector
	BasicAuth      *BasicAuth
	Period         time.Duration

	// Concurrency bounds parallel fetches within one level; <= 0 means one
	// goroutine per admitted URL.
	Concurrency    int
	UserAgent      string
	RequestTimeout time.Duration

	// RespectRobotsTxt is carried from configuration but not honored.
	RespectRobotsTxt bool
}
