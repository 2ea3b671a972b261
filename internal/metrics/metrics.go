// Package metrics exposes Prometheus collectors for crawl activity.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page outcomes used as the "outcome" label.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// OtherSite is the site label shared by every host outside the seed domains.
const OtherSite = "other"

var (
	pagesTotal                 *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	linksDiscoveredTotal       prometheus.Counter
	linksDroppedTotal          *prometheus.CounterVec
	frontierLevel              prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creepy_pages_total",
				Help: "Total number of pages fetched, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creepy_fetch_duration_seconds",
				Help:    "Histogram of fetch and classify latencies, labeled by outcome.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"outcome"},
		)

		linksDiscoveredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "creepy_links_discovered_total",
				Help: "Total number of outbound links resolved from fetched pages.",
			},
		)

		linksDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creepy_links_dropped_total",
				Help: "Total number of links dropped before admission, labeled by reason.",
			},
			[]string{"reason"},
		)

		frontierLevel = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "creepy_frontier_level",
				Help: "Index of the frontier level currently being dispatched.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creepy_http_requests_total",
				Help: "Total number of requests served by the metrics endpoint, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creepy_http_request_duration_seconds",
				Help:    "Histogram of metrics endpoint latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one fetch attempt and its outcome. site must come
// from a bounded set, such as the seed hosts plus OtherSite.
func ObservePage(site, outcome string, duration time.Duration) {
	Init()
	pagesTotal.WithLabelValues(site, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveLinks adds n resolved outbound links.
func ObserveLinks(n int) {
	Init()
	if n > 0 {
		linksDiscoveredTotal.Add(float64(n))
	}
}

// ObserveDroppedLink counts a link dropped for reason.
func ObserveDroppedLink(reason string) {
	Init()
	linksDroppedTotal.WithLabelValues(reason).Inc()
}

// SetFrontierLevel publishes the level being dispatched.
func SetFrontierLevel(level int) {
	Init()
	frontierLevel.Set(float64(level))
}

// ObserveHTTPRequest increments the endpoint request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
