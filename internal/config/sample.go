package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SelectorExamples is printed above the full sample to show richer
// selector syntax without overriding the sample's own values.
const SelectorExamples = `# link_criteria = 'a.is-link:not(button)'
# match_criteria = 'form.is-form'
`

// sampleFile is the on-disk layout of the crawl keys. Ambient sections
// (output, logging, metrics, pubsub) are left to their defaults.
type sampleFile struct {
	Domains          []string   `toml:"domains"`
	Blacklist        []string   `toml:"blacklist"`
	Whitelist        []string   `toml:"whitelist"`
	SuperBlacklist   []string   `toml:"super_blacklist"`
	RespectRobotsTxt bool       `toml:"respect_robots_txt"`
	LinkCriteria     string     `toml:"link_criteria,omitempty"`
	MatchCriteria    string     `toml:"match_criteria,omitempty"`
	Period           string     `toml:"period"`
	BasicAuth        *BasicAuth `toml:"basic_auth,omitempty"`
}

// Default returns the empty configuration printed by `configure --default`.
func Default() Config {
	return Config{
		Domains:        []string{},
		Blacklist:      []string{},
		Whitelist:      []string{},
		SuperBlacklist: []string{},
	}
}

// Full returns the annotated sample printed by `configure --full`.
func Full() Config {
	return Config{
		Domains:          []string{"https://github.com/goolord"},
		Blacklist:        []string{".*"},
		Whitelist:        []string{"https://github.com/goolord.*"},
		SuperBlacklist:   []string{`.*\.jpg`},
		RespectRobotsTxt: true,
		LinkCriteria:     "a[href]",
		MatchCriteria:    "form",
		Period:           time.Second,
		BasicAuth:        &BasicAuth{User: "username", Pass: "pass"},
	}
}

// MarshalTOML renders the crawl keys of c as a TOML document.
func (c Config) MarshalTOML() ([]byte, error) {
	file := sampleFile{
		Domains:          orEmpty(c.Domains),
		Blacklist:        orEmpty(c.Blacklist),
		Whitelist:        orEmpty(c.Whitelist),
		SuperBlacklist:   orEmpty(c.SuperBlacklist),
		RespectRobotsTxt: c.RespectRobotsTxt,
		LinkCriteria:     c.LinkCriteria,
		MatchCriteria:    c.MatchCriteria,
		Period:           c.Period.String(),
		BasicAuth:        c.BasicAuth,
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
