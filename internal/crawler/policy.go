package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// ErrIneligibleSeed reports a seed domain the policy itself rejects.
var ErrIneligibleSeed = errors.New("blacklist overrides a configured domain")

// Policy decides crawl eligibility from the configured regex lists and seeds.
// The super-blacklist is absolute; whitelist and seed-domain membership can
// rescue a blacklist match but not a super-blacklist match.
type Policy struct {
	seeds          []*url.URL
	blacklist      []*regexp.Regexp
	whitelist      []*regexp.Regexp
	superBlacklist []*regexp.Regexp
}

// NewPolicy builds a Policy from cfg.
func NewPolicy(cfg Config) *Policy {
	return &Policy{
		seeds:          cfg.Seeds,
		blacklist:      cfg.Blacklist,
		whitelist:      cfg.Whitelist,
		superBlacklist: cfg.SuperBlacklist,
	}
}

// Eligible reports whether u may be crawled.
func (p *Policy) Eligible(u *url.URL) bool {
	if u == nil {
		return false
	}
	raw := u.String()
	inBlacklist := matchesAny(p.blacklist, raw)
	inWhitelist := matchesAny(p.whitelist, raw)
	inSeeds := p.inSeedDomains(u)
	inSuperBlacklist := matchesAny(p.superBlacklist, raw)
	return (!inBlacklist || inWhitelist || inSeeds) && !inSuperBlacklist
}

// ValidateSeeds fails when any seed is itself ineligible.
func (p *Policy) ValidateSeeds() error {
	for _, seed := range p.seeds {
		if !p.Eligible(seed) {
			return fmt.Errorf("%w: %s", ErrIneligibleSeed, seed)
		}
	}
	return nil
}

func (p *Policy) inSeedDomains(u *url.URL) bool {
	for _, seed := range p.seeds {
		if sameHost(seed, u) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, rx := range patterns {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}
