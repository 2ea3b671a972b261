package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/creepy/internal/metrics"
)

// Classifier decides whether a fetched page is a hit and collects its
// outbound links. Selectors are resolved once at construction.
type Classifier struct {
	match  Selector
	links  Selector
	logger *zap.Logger
}

// NewClassifier builds a Classifier for the given selectors.
func NewClassifier(match, links Selector, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{match: match, links: links, logger: logger}
}

// Classify parses page.Body. base is the URL relative links are resolved
// against. A Default match selector makes every page a hit.
func (c *Classifier) Classify(base *url.URL, page Page) (bool, []*url.URL, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return false, nil, fmt.Errorf("parse document: %w", err)
	}

	isHit := true
	if !c.match.IsDefault() {
		isHit = doc.FindMatcher(c.match.compiled).Length() > 0
	}

	var links []*url.URL
	doc.FindMatcher(c.links.linkMatcher()).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved, err := Resolve(base, href)
		switch {
		case err == nil:
			links = append(links, resolved)
		case errors.Is(err, ErrSkip):
			metrics.ObserveDroppedLink("skip")
		case errors.Is(err, ErrUnsupportedScheme):
			metrics.ObserveDroppedLink("scheme")
			c.logger.Debug("Dropping link", zap.String("href", href), zap.Error(err))
		default:
			metrics.ObserveDroppedLink("unresolvable")
			c.logger.Warn("Could not resolve link", zap.String("href", href), zap.Error(err))
		}
	})
	return isHit, links, nil
}
