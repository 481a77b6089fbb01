// Package filter decides which parsed records are kept for indexing.
package filter

import (
	"path"
	"strings"

	"github.com/ccollicutt/weblogviz/pkg/parser"
)

// Policy configures a Filter. The zero value keeps only status-200,
// non-media, non-crawler records with their query strings intact.
type Policy struct {
	IncludeErrors     bool
	IncludeMedia      bool
	IncludeCrawlers   bool
	IgnoreQueryParams bool

	// MediaExtensions lists extensions (without the dot) that mark a path
	// as a static asset. Empty means DefaultMediaExtensions.
	MediaExtensions []string

	// CrawlerSignatures lists case-sensitive user-agent substrings that mark
	// automated traffic. Empty means DefaultCrawlerSignatures.
	CrawlerSignatures []string
}

// DefaultMediaExtensions returns the static-asset extensions excluded unless
// media is included.
func DefaultMediaExtensions() []string {
	return []string{"txt", "xml", "css", "js", "jpg", "png", "gif", "svg", "ico", "otf"}
}

// DefaultCrawlerSignatures returns the user-agent substrings treated as
// crawlers, feed readers and HTTP tooling.
func DefaultCrawlerSignatures() []string {
	return []string{
		"https:", "http:",
		"Bot", "bot", "crawler", "spider", "compatible;",
		"subscriber", "Gwene", "Zapier", "Automattic", "WhatsApp",
		"curl", "scraper", "Wget", "Python", "Ruby", "Go", "Rome", "Jersey",
		"Emacs", "+collection@", "Slack", "Reeder", "Twitter",
		"requests", "Apache-", "perl", "uatools",
	}
}

// Filter applies a Policy. It is read-only after New and safe for concurrent use.
type Filter struct {
	policy   Policy
	media    map[string]struct{}
	crawlers []string
}

// New builds a Filter from p.
func New(p Policy) *Filter {
	exts := p.MediaExtensions
	if len(exts) == 0 {
		exts = DefaultMediaExtensions()
	}
	media := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		media[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	crawlers := p.CrawlerSignatures
	if len(crawlers) == 0 {
		crawlers = DefaultCrawlerSignatures()
	}

	return &Filter{
		policy:   p,
		media:    media,
		crawlers: append([]string(nil), crawlers...),
	}
}

// Policy returns the policy the filter was built from.
func (f *Filter) Policy() Policy {
	return f.policy
}

// RewritePath strips the query string from p when the policy ignores query
// parameters. It runs before Keep so records group under the bare path.
func (f *Filter) RewritePath(p string) string {
	if !f.policy.IgnoreQueryParams {
		return p
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}

// Keep reports whether rec passes every rule of the policy.
func (f *Filter) Keep(rec parser.Record) bool {
	if !f.policy.IncludeErrors && rec.Status != 200 {
		return false
	}
	if !f.policy.IncludeMedia && f.IsMediaPath(rec.Path) {
		return false
	}
	if !f.policy.IncludeCrawlers && f.IsCrawler(rec.UserAgent) {
		return false
	}
	return true
}

// IsMediaPath reports whether the lowercased extension of p is a media extension.
func (f *Filter) IsMediaPath(p string) bool {
	return IsMediaPath(p, f.media)
}

// IsCrawler reports whether userAgent contains any crawler signature.
func (f *Filter) IsCrawler(userAgent string) bool {
	return IsCrawler(userAgent, f.crawlers)
}

// IsMediaPath reports whether the lowercased extension of p is in exts.
func IsMediaPath(p string, exts map[string]struct{}) bool {
	ext := path.Ext(strings.ToLower(p))
	if ext == "" {
		return false
	}
	_, ok := exts[ext[1:]]
	return ok
}

// IsCrawler reports whether userAgent contains any of signatures.
func IsCrawler(userAgent string, signatures []string) bool {
	for _, sig := range signatures {
		if sig != "" && strings.Contains(userAgent, sig) {
			return true
		}
	}
	return false
}
