package crawler

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/creepy/internal/metrics"
)

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, u *url.URL) (Page, error) {
	args := m.Called(ctx, u.String())
	return args.Get(0).(Page), args.Error(1)
}

// mapFetcher serves canned bodies and records every fetched canonical key.
type mapFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	fetched  []string
	perKey   map[Key]int
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func newMapFetcher(pages map[string]string) *mapFetcher {
	return &mapFetcher{pages: pages, perKey: make(map[Key]int)}
}

func (f *mapFetcher) Fetch(_ context.Context, u *url.URL) (Page, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, u.String())
	f.perKey[KeyOf(u)]++
	body, ok := f.pages[u.String()]
	if !ok {
		return Page{}, errors.New("connection refused")
	}
	return Page{URL: u.String(), FinalURL: u.String(), StatusCode: 200, Body: []byte(body)}, nil
}

type countingPauser struct {
	calls atomic.Int32
}

func (p *countingPauser) Pause(context.Context, time.Duration) {
	p.calls.Add(1)
}

func seedConfig(t *testing.T, seeds ...string) Config {
	t.Helper()
	cfg := Config{}
	for _, s := range seeds {
		cfg.Seeds = append(cfg.Seeds, mustParseURL(t, s))
	}
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, fetcher Fetcher, opts ...Option) (*Engine, *countingPauser) {
	t.Helper()
	engine, err := NewEngine(cfg, fetcher, zap.NewNop(), opts...)
	require.NoError(t, err)
	pauser := &countingPauser{}
	engine.pauser = pauser
	return engine, pauser
}

func TestEngineRunEndToEnd(t *testing.T) {
	cfg := seedConfig(t, "https://site.test/")
	cfg.Blacklist = regexps(".*")
	fetcher := newMapFetcher(map[string]string{
		"https://site.test/":     `<a href="/leaf">leaf</a><a href="https://excluded.test/">away</a>`,
		"https://site.test/leaf": `<p>no links</p>`,
		"https://excluded.test/": `<p>never</p>`,
	})
	engine, _ := newTestEngine(t, cfg, fetcher)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://site.test/", "https://site.test/leaf"}, result.Hits)
	assert.Empty(t, result.Misses)
	assert.NotContains(t, fetcher.fetched, "https://excluded.test/")
	assert.Equal(t, 2, result.Visited)
	assert.Equal(t, 2, result.Levels)
}

func TestEngineNeverFetchesAKeyTwice(t *testing.T) {
	fetcher := newMapFetcher(map[string]string{
		"https://loop.test/":      `<a href="/a?x=1">a1</a><a href="/a?x=2">a2</a><a href="/b">b</a><a href="/">self</a>`,
		"https://loop.test/a?x=1": `<a href="/b#frag">b</a><a href="http://loop.test/">home</a>`,
		"https://loop.test/b":     `<a href="/a">a</a><a href="/b?page=2">b2</a>`,
	})
	engine, _ := newTestEngine(t, seedConfig(t, "https://loop.test/", "https://loop.test/?dup=1"), fetcher)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	for key, n := range fetcher.perKey {
		assert.Equal(t, 1, n, "key %s fetched %d times", key, n)
	}
	assert.Len(t, fetcher.fetched, 3)
	assert.Equal(t, 3, result.Visited)
	assert.ElementsMatch(t, []string{
		"https://loop.test/",
		"https://loop.test/a?x=1",
		"https://loop.test/b",
	}, result.Hits)
}

func TestEngineRecordsTransportFailuresAsMisses(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://site.test/").
		Return(Page{Body: []byte(`<a href="/down">down</a><a href="/up">up</a>`)}, nil)
	fetcher.On("Fetch", mock.Anything, "https://site.test/down").
		Return(Page{}, errors.New("dial tcp: connection refused"))
	fetcher.On("Fetch", mock.Anything, "https://site.test/up").
		Return(Page{Body: []byte(`<p>fine</p>`)}, nil)

	engine, pauser := newTestEngine(t, seedConfig(t, "https://site.test/"), fetcher)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://site.test/", "https://site.test/up"}, result.Hits)
	assert.Equal(t, []string{"https://site.test/down"}, result.Misses)
	assert.Equal(t, int32(3), pauser.calls.Load(), "politeness delay applies to failed attempts too")
	fetcher.AssertExpectations(t)
}

func TestEngineMatchSelectorSplitsHitsAndMisses(t *testing.T) {
	cfg := seedConfig(t, "https://shop.test/")
	cfg.MatchSelector = MustParseSelector("form")
	fetcher := newMapFetcher(map[string]string{
		"https://shop.test/":        `<a href="/contact">c</a><a href="/about">a</a>`,
		"https://shop.test/contact": `<form></form>`,
		"https://shop.test/about":   `<p>about</p>`,
	})
	engine, _ := newTestEngine(t, cfg, fetcher)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.test/contact"}, result.Hits)
	assert.Equal(t, []string{"https://shop.test/", "https://shop.test/about"}, result.Misses)
}

func TestEngineSuperBlacklistPrunesLinks(t *testing.T) {
	cfg := seedConfig(t, "https://a.test/")
	cfg.Whitelist = regexps(".*")
	cfg.SuperBlacklist = regexps(`\.jpg$`)
	fetcher := newMapFetcher(map[string]string{
		"https://a.test/": `<a href="/img.jpg">img</a>`,
	})
	engine, _ := newTestEngine(t, cfg, fetcher)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test/"}, fetcher.fetched)
	assert.Equal(t, 1, result.Levels)
}

func TestEngineBoundsConcurrencyWithinALevel(t *testing.T) {
	cfg := seedConfig(t,
		"https://p.test/1", "https://p.test/2", "https://p.test/3",
		"https://p.test/4", "https://p.test/5", "https://p.test/6",
	)
	cfg.Concurrency = 2
	pages := map[string]string{}
	for _, s := range cfg.Seeds {
		pages[s.String()] = "<p></p>"
	}
	fetcher := newMapFetcher(pages)
	fetcher.delay = 20 * time.Millisecond
	engine, _ := newTestEngine(t, cfg, fetcher)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Hits, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.maxSeen), int32(2))
	assert.Equal(t, []string{
		"https://p.test/1", "https://p.test/2", "https://p.test/3",
		"https://p.test/4", "https://p.test/5", "https://p.test/6",
	}, result.Hits, "hits keep admission order regardless of completion order")
}

func TestEngineInvokesHitHandler(t *testing.T) {
	fetcher := newMapFetcher(map[string]string{
		"https://h.test/":  `<a href="/x">x</a>`,
		"https://h.test/x": ``,
	})
	var got []string
	engine, _ := newTestEngine(t, seedConfig(t, "https://h.test/"), fetcher,
		WithHitHandler(func(_ context.Context, raw string) {
			got = append(got, raw)
		}))

	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://h.test/", "https://h.test/x"}, got)
}

func TestNewEngineRejectsIneligibleSeed(t *testing.T) {
	cfg := seedConfig(t, "https://a.test/photo.jpg")
	cfg.SuperBlacklist = regexps(`\.jpg`)
	fetcher := new(MockFetcher)

	_, err := NewEngine(cfg, fetcher, nil)
	require.ErrorIs(t, err, ErrIneligibleSeed)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestNewEngineRequiresFetcher(t *testing.T) {
	_, err := NewEngine(Config{}, nil, nil)
	require.Error(t, err)
}

func TestEngineStopsOnCanceledContext(t *testing.T) {
	fetcher := new(MockFetcher)
	engine, _ := newTestEngine(t, seedConfig(t, "https://c.test/"), fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Hits)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestEngineWithNoSeedsTerminatesImmediately(t *testing.T) {
	engine, _ := newTestEngine(t, Config{}, new(MockFetcher))
	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Levels)
	assert.Zero(t, result.Visited)
}

func TestNewEngineWarnsThatRobotsTxtIsIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := seedConfig(t, "https://c.test/")

	_, err := NewEngine(cfg, new(MockFetcher), zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	cfg.RespectRobotsTxt = true
	_, err = NewEngine(cfg, new(MockFetcher), zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("robots.txt").Len())
}

func TestEngineLeavesCanceledFetchesOutOfResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://c.test/").
		Run(func(mock.Arguments) { cancel() }).
		Return(Page{}, context.Canceled)
	engine, _ := newTestEngine(t, seedConfig(t, "https://c.test/"), fetcher)

	result, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Hits)
	assert.Empty(t, result.Misses)
	assert.Equal(t, 1, result.Visited)
	fetcher.AssertExpectations(t)
}

func TestEngineSiteLabelBucketsForeignHosts(t *testing.T) {
	engine, _ := newTestEngine(t, seedConfig(t, "https://Seed.test/start"), new(MockFetcher))

	assert.Equal(t, "seed.test", engine.siteLabel(mustParseURL(t, "https://seed.test/a")))
	assert.Equal(t, "seed.test", engine.siteLabel(mustParseURL(t, "http://SEED.test:8080/b")))
	assert.Equal(t, metrics.OtherSite, engine.siteLabel(mustParseURL(t, "https://elsewhere.test/")))
	assert.Equal(t, metrics.OtherSite, engine.siteLabel(mustParseURL(t, "https://cdn.seed.test/")))
}
