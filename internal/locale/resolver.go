// Package locale maps inbound request paths onto {locale, path} pairs using a
// fixed set of supported locales and one default.
package locale

import (
	"errors"
	"fmt"
	pathpkg "path"
	"strings"
)

var (
	ErrDefaultLocaleRequired    = errors.New("locale: default locale required")
	ErrDefaultLocaleUnsupported = errors.New("locale: default locale not in supported set")
	ErrDuplicateLocale          = errors.New("locale: duplicate locale")
	ErrLocaleInvalid            = errors.New("locale: locale code invalid")
)

// Kind is the decision taken for one path.
type Kind uint8

const (
	// Pass forwards the path unchanged.
	Pass Kind = iota
	// Redirect sends the client to Path.
	Redirect
	// Rewrite routes Path internally; the external URL is unchanged.
	Rewrite
)

func (k Kind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case Rewrite:
		return "rewrite"
	default:
		return "pass"
	}
}

// MarshalText renders the kind label.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the resolver decision for one path. Path is empty for Pass.
type Result struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"`
}

// Route is the locale and remainder path of an already resolved path.
type Route struct {
	Locale string `json:"locale"`
	Path   string `json:"path"`
}

// Resolver applies the default-locale prefix convention.
type Resolver struct {
	defaultLocale string
	locales       []string
	supported     map[string]struct{}
}

// NewResolver validates the locale set. Locale codes are compared exactly;
// matching against paths is done per path segment.
func NewResolver(defaultLocale string, supported []string) (*Resolver, error) {
	defaultLocale = strings.TrimSpace(defaultLocale)
	if defaultLocale == "" {
		return nil, ErrDefaultLocaleRequired
	}
	r := &Resolver{
		defaultLocale: defaultLocale,
		supported:     make(map[string]struct{}, len(supported)),
	}
	for _, code := range supported {
		code = strings.TrimSpace(code)
		if code == "" || strings.ContainsAny(code, "/?#") {
			return nil, fmt.Errorf("%w: %q", ErrLocaleInvalid, code)
		}
		if _, dup := r.supported[code]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLocale, code)
		}
		r.supported[code] = struct{}{}
		r.locales = append(r.locales, code)
	}
	if _, ok := r.supported[defaultLocale]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefaultLocaleUnsupported, defaultLocale)
	}
	return r, nil
}

// DefaultLocale returns the locale served without a prefix.
func (r *Resolver) DefaultLocale() string {
	return r.defaultLocale
}

// Locales lists the supported locales in configured order.
func (r *Resolver) Locales() []string {
	return append([]string(nil), r.locales...)
}

// Supports reports whether code is a supported locale.
func (r *Resolver) Supports(code string) bool {
	_, ok := r.supported[code]
	return ok
}

// Resolve decides how path should be routed.
func (r *Resolver) Resolve(path string) Result {
	path = normalizePath(path)
	first, rest := firstSegment(path)

	if first == r.defaultLocale {
		return Result{Kind: Redirect, Path: localRemainder(rest)}
	}
	if r.Supports(first) {
		return Result{Kind: Pass}
	}
	return Result{Kind: Rewrite, Path: "/" + r.defaultLocale + path}
}

// Split derives the route of a path. Paths without a supported locale prefix
// belong to the default locale.
func (r *Resolver) Split(path string) Route {
	path = normalizePath(path)
	first, rest := firstSegment(path)
	if r.Supports(first) {
		return Route{Locale: first, Path: rest}
	}
	return Route{Locale: r.defaultLocale, Path: path}
}

// Localize builds the external path of remainder in code, leaving the
// default locale unprefixed.
func (r *Resolver) Localize(code, remainder string) string {
	remainder = normalizePath(remainder)
	if code == r.defaultLocale || !r.Supports(code) {
		return remainder
	}
	if remainder == "/" {
		return "/" + code
	}
	return "/" + code + remainder
}

// firstSegment splits "/a/b" into "a" and "/b". The remainder of a single
// segment path is "/".
func firstSegment(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "/"
	}
	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed, "/"
	}
	return trimmed[:idx], trimmed[idx:]
}

// localRemainder cleans a redirect target so it stays on this host. Backslashes
// count as separators and runs of slashes collapse, so the result never starts
// with "//" or "/\".
func localRemainder(rest string) string {
	cleaned := pathpkg.Clean("/" + strings.ReplaceAll(rest, "\\", "/"))
	if cleaned != "/" && strings.HasSuffix(rest, "/") {
		cleaned += "/"
	}
	return cleaned
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
