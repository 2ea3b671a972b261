// Package crawler implements the crawl-frontier engine: canonical URL keys,
// the blacklist/whitelist/super-blacklist policy, href resolution, hit
// classification by CSS selector, and level-by-level frontier expansion with
// a politeness delay after every fetch.
package crawler
