package crawler

import (
	"net/url"
	"strings"
)

// Key is the deduplication identity of a URL: its host and path only.
// Scheme, port, userinfo, query and fragment are ignored, so tracking
// parameter variants of the same resource share one key.
type Key struct {
	Host string
	Path string
}

// KeyOf derives the canonical key for u. The host is lowercased and an empty
// path is treated as "/".
func KeyOf(u *url.URL) Key {
	if u == nil {
		return Key{Path: "/"}
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return Key{
		Host: strings.ToLower(u.Hostname()),
		Path: p,
	}
}

// Compare orders keys lexicographically by host, then path.
func (k Key) Compare(other Key) int {
	if c := strings.Compare(k.Host, other.Host); c != 0 {
		return c
	}
	return strings.Compare(k.Path, other.Path)
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

func (k Key) String() string {
	return k.Host + k.Path
}

func sameHost(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Hostname(), b.Hostname())
}
