package locale

import "strings"

// DefaultExclusions are the path prefixes that never enter the resolver.
var DefaultExclusions = []string{
	"/assets",
	"/static",
	"/api",
	"/admin",
	"/preview",
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
}

// Exclusions is a static allow-list of path prefixes, matched on segment
// boundaries so "/api" excludes "/api/x" but not "/apis".
type Exclusions struct {
	prefixes []string
}

// NewExclusions normalises prefixes. Empty entries are ignored.
func NewExclusions(prefixes ...string) Exclusions {
	out := Exclusions{prefixes: make([]string, 0, len(prefixes))}
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" || prefix == "/" {
			continue
		}
		out.prefixes = append(out.prefixes, "/"+strings.Trim(prefix, "/"))
	}
	return out
}

// Excluded reports whether path falls under one of the prefixes.
func (e Exclusions) Excluded(path string) bool {
	path = normalizePath(path)
	for _, prefix := range e.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Prefixes returns the normalised prefixes.
func (e Exclusions) Prefixes() []string {
	return append([]string(nil), e.prefixes...)
}
