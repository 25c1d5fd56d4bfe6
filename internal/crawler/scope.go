package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeURL normalizes a URL for deduplication: the fragment is
// dropped, scheme and host are lowercased and an empty path becomes "/".
// Unparseable input is returned unchanged.
func NormalizeURL(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// PatternFunc returns the ignore and follow glob patterns for a host.
type PatternFunc func(host string) (ignore, follow []string)

// Scope decides which discovered links are crawled. By default every
// http(s) URL is in scope.
type Scope struct {
	sameHost bool
	hosts    map[string]struct{}
	patterns PatternFunc
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithSameHost restricts the crawl to the hosts of the seed URLs.
func WithSameHost(enabled bool) ScopeOption {
	return func(s *Scope) { s.sameHost = enabled }
}

// WithPatterns sets the per-host ignore/follow patterns.
func WithPatterns(fn PatternFunc) ScopeOption {
	return func(s *Scope) { s.patterns = fn }
}

// NewScope returns a Scope for a crawl started at seeds.
func NewScope(seeds []string, opts ...ScopeOption) *Scope {
	s := &Scope{hosts: make(map[string]struct{})}
	for _, seed := range seeds {
		if u, err := url.Parse(seed); err == nil && u.Host != "" {
			s.hosts[strings.ToLower(u.Host)] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether target may be crawled.
func (s *Scope) Allow(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Host)
	if s.sameHost {
		if _, ok := s.hosts[host]; !ok {
			return false
		}
	}
	if s.patterns == nil {
		return true
	}
	ignore, follow := s.patterns(u.Hostname())
	return shouldCrawl(u.Path, ignore, follow)
}

// shouldCrawl checks a URL path against ignore/follow patterns.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it (return false)
//  2. If follow patterns are set and the path matches none, skip it (return false)
//  3. Otherwise, crawl it (return true)
func shouldCrawl(path string, ignore, follow []string) bool {
	if path == "" {
		path = "/"
	}
	for _, pattern := range ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}
	if len(follow) == 0 {
		return true
	}
	for _, pattern := range follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a prefix
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/edit"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?/") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Bare filename globs also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		return err == nil && matched
	}
	return false
}
