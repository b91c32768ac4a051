package locale

import (
	"context"
	"net/http"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/pkg/interfaces"
)

type routeKey struct{}

// WithRoute stores route on ctx.
func WithRoute(ctx context.Context, route Route) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFromContext returns the route stored by Middleware.
func RouteFromContext(ctx context.Context) (Route, bool) {
	if ctx == nil {
		return Route{}, false
	}
	route, ok := ctx.Value(routeKey{}).(Route)
	return route, ok
}

// Middleware applies the resolver to every request outside exclusions.
// Redirects use 308 and keep the query string; rewrites replace the request
// path before next sees it.
func Middleware(resolver *Resolver, exclusions Exclusions, logger interfaces.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil || exclusions.Excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			result := resolver.Resolve(r.URL.Path)
			switch result.Kind {
			case Redirect:
				target := result.Path
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				logger.WithContext(r.Context()).Debug("locale.redirect", "from", r.URL.Path, "to", target)
				http.Redirect(w, r, target, http.StatusPermanentRedirect)
				return
			case Rewrite:
				logger.WithContext(r.Context()).Trace("locale.rewrite", "from", r.URL.Path, "to", result.Path)
				rewritten := r.Clone(r.Context())
				rewritten.URL.Path = result.Path
				rewritten.URL.RawPath = ""
				r = rewritten
			}

			route := resolver.Split(r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithRoute(r.Context(), route)))
		})
	}
}
