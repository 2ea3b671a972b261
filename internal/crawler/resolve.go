package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrSkip marks an href that is not a crawl target (same-page fragment or empty).
	ErrSkip = errors.New("href is not crawlable")
	// ErrUnresolvable marks an href that fails to parse even after repair.
	ErrUnresolvable = errors.New("could not parse URL")
	// ErrUnsupportedScheme marks an absolute URL that is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

const missingHost = "EMPTY"

// Resolve turns href, found on the page at base, into an absolute URL.
//
// Relative references are repaired by prefixing base's scheme and host, not
// by RFC 3986 resolution: "../" segments are not collapsed, "//host/path" is
// appended to the base host and "?q" is appended verbatim. Changing this
// changes which pages a crawl reaches.
func Resolve(base *url.URL, href string) (*url.URL, error) {
	href = strings.TrimSpace(href)
	parsed, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, href, err)
	}
	if parsed.IsAbs() {
		return checkScheme(parsed)
	}

	if href == "" || strings.HasPrefix(href, "#") {
		return nil, ErrSkip
	}

	scheme, host := "http", missingHost
	if base != nil {
		if base.Scheme != "" {
			scheme = base.Scheme
		}
		if base.Host != "" {
			host = base.Host
		}
	}
	repaired, err := url.Parse(scheme + "://" + host + href)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, href, err)
	}
	return checkScheme(repaired)
}

func checkScheme(u *url.URL) (*url.URL, error) {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}
