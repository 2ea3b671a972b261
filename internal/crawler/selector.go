package crawler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ErrInvalidSelector reports a CSS selector that does not compile.
var ErrInvalidSelector = errors.New("invalid selector")

// DefaultLinkSelector is used when no link selector is configured.
const DefaultLinkSelector = "a[href]"

var defaultLinkMatcher = cascadia.MustCompile(DefaultLinkSelector)

// Selector is either Default (the zero value) or a compiled custom CSS
// selector. What Default means depends on the use: every page for the match
// selector, DefaultLinkSelector for the link selector.
type Selector struct {
	raw      string
	compiled cascadia.Selector
}

// ParseSelector compiles raw. A blank string yields the Default selector.
func ParseSelector(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}, nil
	}
	compiled, err := cascadia.Compile(raw)
	if err != nil {
		return Selector{}, fmt.Errorf("%w %q: %w", ErrInvalidSelector, raw, err)
	}
	return Selector{raw: raw, compiled: compiled}, nil
}

// MustParseSelector is like ParseSelector but panics on error.
func MustParseSelector(raw string) Selector {
	s, err := ParseSelector(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// IsDefault reports whether no custom selector was configured.
func (s Selector) IsDefault() bool {
	return s.compiled == nil
}

func (s Selector) String() string {
	if s.IsDefault() {
		return "default"
	}
	return s.raw
}

// linkMatcher resolves the link selector to a concrete matcher.
func (s Selector) linkMatcher() cascadia.Selector {
	if s.IsDefault() {
		return defaultLinkMatcher
	}
	return s.compiled
}
