// Package config loads and validates crawl configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/JakeFAU/creepy/internal/crawler"
)

// DefaultUserAgent is sent when user_agent is not configured.
const DefaultUserAgent = "creepy/1.0"

var fileTypes = []string{"toml", "yaml", "yml", "json"}

// Config captures every knob of a crawl as it appears in the TOML file.
type Config struct {
	Domains          []string      `mapstructure:"domains"`
	Blacklist        []string      `mapstructure:"blacklist"`
	Whitelist        []string      `mapstructure:"whitelist"`
	SuperBlacklist   []string      `mapstructure:"super_blacklist"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt"`
	LinkCriteria     string        `mapstructure:"link_criteria"`
	MatchCriteria    string        `mapstructure:"match_criteria"`
	Period           time.Duration `mapstructure:"period"`
	BasicAuth        *BasicAuth    `mapstructure:"basic_auth"`
	Concurrency      int           `mapstructure:"concurrency"`
	UserAgent        string        `mapstructure:"user_agent"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Output           OutputConfig  `mapstructure:"output"`
	Logging          LoggingConfig `mapstructure:"logging"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
	PubSub           PubSubConfig  `mapstructure:"pubsub"`
}

// BasicAuth holds the credentials sent with every request.
type BasicAuth struct {
	User string `mapstructure:"user" toml:"user"`
	Pass string `mapstructure:"pass" toml:"pass"`
}

// OutputConfig controls where the crawl report is written. A path of "-"
// means stdout; gs://bucket/object uploads to Cloud Storage.
type OutputConfig struct {
	Path       string `mapstructure:"path"`
	MissesPath string `mapstructure:"misses_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig enables the Prometheus endpoint when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// PubSubConfig enables hit notifications when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether hit notifications should be published.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.TopicName != ""
}

// Load builds a Config from disk and the environment. Files without a
// recognised extension are parsed as TOML.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CREEPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); !slices.Contains(fileTypes, ext) {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("respect_robots_txt", false)
	v.SetDefault("concurrency", 0)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("request_timeout", crawler.DefaultRequestTimeout.String())
	v.SetDefault("output.path", "hits.txt")
	v.SetDefault("output.misses_path", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return ErrNoDomains
	}
	if c.Period < 0 {
		return fmt.Errorf("%w: must be non-negative, got %s", ErrInvalidPeriod, c.Period)
	}
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BasicAuth != nil && c.BasicAuth.User == "" {
		return ErrInvalidBasicAuth
	}
	return nil
}

// CrawlerConfig parses seeds, compiles patterns and selectors and returns
// the immutable engine configuration. Every failure here is fatal to the
// crawl and happens before any request is sent, including a seed that the
// configured lists reject.
func (c Config) CrawlerConfig() (crawler.Config, error) {
	seeds, err := parseSeeds(c.Domains)
	if err != nil {
		return crawler.Config{}, err
	}
	blacklist, err := compileAll("blacklist", c.Blacklist)
	if err != nil {
		return crawler.Config{}, err
	}
	whitelist, err := compileAll("whitelist", c.Whitelist)
	if err != nil {
		return crawler.Config{}, err
	}
	superBlacklist, err := compileAll("super_blacklist", c.SuperBlacklist)
	if err != nil {
		return crawler.Config{}, err
	}
	match, err := crawler.ParseSelector(c.MatchCriteria)
	if err != nil {
		return crawler.Config{}, fmt.Errorf("match_criteria: %w", err)
	}
	links, err := crawler.ParseSelector(c.LinkCriteria)
	if err != nil {
		return crawler.Config{}, fmt.Errorf("link_criteria: %w", err)
	}

	out := crawler.Config{
		Seeds:            seeds,
		Blacklist:        blacklist,
		Whitelist:        whitelist,
		SuperBlacklist:   superBlacklist,
		MatchSelector:    match,
		LinkSelector:     links,
		Period:           c.Period,
		Concurrency:      c.Concurrency,
		UserAgent:        c.UserAgent,
		RequestTimeout:   c.RequestTimeout,
		RespectRobotsTxt: c.RespectRobotsTxt,
	}
	if c.BasicAuth != nil {
		out.BasicAuth = &crawler.BasicAuth{User: c.BasicAuth.User, Pass: c.BasicAuth.Pass}
	}
	if err := crawler.NewPolicy(out).ValidateSeeds(); err != nil {
		return crawler.Config{}, err
	}
	return out, nil
}

func parseSeeds(domains []string) ([]*url.URL, error) {
	seeds := make([]*url.URL, 0, len(domains))
	for i, raw := range domains {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("domains[%d] %q: %w: %v", i, raw, ErrInvalidDomain, err)
		}
		if !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("domains[%d] %q: %w", i, raw, ErrInvalidDomain)
		}
		seeds = append(seeds, u)
	}
	return seeds, nil
}

func compileAll(field string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %q: %w: %v", field, i, p, ErrInvalidPattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}
