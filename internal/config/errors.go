package config

import "errors"

// Configuration validation errors returned by Validate and CrawlerConfig.
var (
	// ErrNoDomains is returned when no seed domain is configured.
	ErrNoDomains = errors.New("no domains configured: set at least one seed URL in domains")

	// ErrInvalidDomain is returned when a seed is not an absolute URL with a host.
	ErrInvalidDomain = errors.New("invalid domain: must be an absolute URL with a host")

	// ErrInvalidPattern is returned when a blacklist, whitelist or
	// super_blacklist entry does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidPeriod is returned when period is negative or has an
	// unsupported form.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidConcurrency is returned when concurrency is negative.
	// Use 0 for one goroutine per URL in a level.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidTimeout is returned when request_timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request_timeout: must be positive")

	// ErrInvalidBasicAuth is returned when a basic_auth table has no user.
	ErrInvalidBasicAuth = errors.New("invalid basic_auth: user must be set")
)
