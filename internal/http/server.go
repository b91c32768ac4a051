package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/blocks"
	cachecmd "github.com/goliatone/go-delivery/internal/commands/cache"
	"github.com/goliatone/go-delivery/internal/locale"
	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/overlay"
	"github.com/goliatone/go-delivery/internal/render"
	"github.com/goliatone/go-delivery/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	// RevalidateSecretHeader carries the shared secret of POST /api/revalidate.
	RevalidateSecretHeader = "X-Revalidate-Secret"
	// RequestIDHeader is honoured on requests and echoed on responses.
	RequestIDHeader = "X-Request-ID"
)

var (
	ErrPipelineRequired = errors.New("http: pipeline is required")
	ErrResolverRequired = errors.New("http: locale resolver is required")
	ErrCacheDisabled    = errors.New("http: cache revalidation is not configured")
)

// Pipeline assembles the plans the server renders. *assembler.Assembler
// implements it.
type Pipeline interface {
	Assemble(ctx context.Context, locale, slug string) (*assembler.RenderPlan, error)
	AssemblePreview(ctx context.Context, token string) (*assembler.RenderPlan, error)
	AssembleListing(ctx context.Context, req assembler.ListingRequest) (*assembler.ListingPlan, error)
}

// Revalidator executes cache invalidation commands.
type Revalidator interface {
	Execute(ctx context.Context, msg cachecmd.InvalidateCacheCommand) error
}

// MenuProvider lists the block types an editor can insert.
type MenuProvider interface {
	AddMenu() []blocks.MenuEntry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocaleLogger sets the logger of the locale middleware.
func WithLocaleLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.localeLogger = logger
		}
	}
}

// WithRenderer replaces the default JSON renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithBinder attaches the editing overlay to previews.
func WithBinder(binder overlay.Binder) Option {
	return func(s *Server) {
		s.binder = binder
	}
}

// WithRevalidator enables POST /api/revalidate.
func WithRevalidator(revalidator Revalidator) Option {
	return func(s *Server) {
		s.revalidator = revalidator
	}
}

// WithMenu serves the add-menu at GET /api/blocks.
func WithMenu(menu MenuProvider) Option {
	return func(s *Server) {
		s.menu = menu
	}
}

// WithSecrets sets the preview and revalidation secrets. An empty secret
// disables the matching endpoint.
func WithSecrets(preview, revalidate string) Option {
	return func(s *Server) {
		s.previewSecret = strings.TrimSpace(preview)
		s.revalidateSecret = strings.TrimSpace(revalidate)
	}
}

// WithExclusions overrides the paths that bypass locale resolution.
func WithExclusions(exclusions locale.Exclusions) Option {
	return func(s *Server) {
		s.exclusions = exclusions
	}
}

// Server routes delivery requests.
type Server struct {
	pipeline         Pipeline
	resolver         *locale.Resolver
	exclusions       locale.Exclusions
	renderer         render.Renderer
	binder           overlay.Binder
	revalidator      Revalidator
	menu             MenuProvider
	logger           interfaces.Logger
	localeLogger     interfaces.Logger
	previewSecret    string
	revalidateSecret string
	handler          http.Handler
}

// NewServer builds the delivery handler.
func NewServer(pipeline Pipeline, resolver *locale.Resolver, opts ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	s := &Server{
		pipeline:   pipeline,
		resolver:   resolver,
		exclusions: locale.NewExclusions(locale.DefaultExclusions...),
		renderer:   render.JSONRenderer{},
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{locale}/tags/{tag}", s.handleListing)
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("POST /api/revalidate", s.handleRevalidate)
	mux.HandleFunc("GET /api/blocks", s.handleBlocks)
	mux.HandleFunc("GET /", s.handlePage)

	if s.localeLogger == nil {
		s.localeLogger = s.logger
	}
	s.handler = annotate(locale.Middleware(resolver, s.exclusions, s.localeLogger)(mux))
	return s, nil
}

// Handler returns the routed handler, locale middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http.shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	route, ok := s.route(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}

	plan, err := s.pipeline.Assemble(r.Context(), route.Locale, route.Path)
	if err != nil {
		s.log(r).Warn("http.page.assemble_failed", "error", err)
		writeError(w, err)
		return
	}
	view := render.Compose(plan)
	s.render(w, r, view.Status, view)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	route, ok := s.route(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}

	req := assembler.ListingRequest{
		Locale: route.Locale,
		Tag:    r.PathValue("tag"),
		Type:   strings.TrimSpace(r.URL.Query().Get("type")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_size must be a positive integer"})
			return
		}
		req.PageSize = size
	}

	plan, err := s.pipeline.AssembleListing(r.Context(), req)
	if err != nil {
		s.log(r).Warn("http.listing.assemble_failed", "error", err)
		writeError(w, err)
		return
	}
	view := render.ComposeListing(plan)
	s.render(w, r, view.Status, view)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.previewSecret == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "preview is disabled"})
		return
	}
	query := r.URL.Query()
	if !secretMatches(s.previewSecret, query.Get("secret")) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	token := strings.TrimSpace(query.Get("token"))
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "token is required"})
		return
	}

	plan, err := s.pipeline.AssemblePreview(r.Context(), token)
	if err != nil {
		s.log(r).Warn("http.preview.assemble_failed", "error", err)
		writeError(w, err)
		return
	}
	view := render.Compose(plan)
	if binding, ok := overlay.Bind(plan); ok && s.binder != nil {
		if err := s.binder.Attach(&view, binding); err != nil {
			s.log(r).Warn("http.preview.overlay_failed", "page_id", binding.PageID, "error", err)
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, view.Status, view)
}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if s.revalidateSecret == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "revalidation is disabled"})
		return
	}
	if !secretMatches(s.revalidateSecret, r.Header.Get(RevalidateSecretHeader)) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	if s.revalidator == nil {
		writeError(w, ErrCacheDisabled)
		return
	}

	var msg cachecmd.InvalidateCacheCommand
	if err := decodeJSON(r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid revalidate payload"})
		return
	}
	if err := s.revalidator.Execute(r.Context(), msg); err != nil {
		writeError(w, err)
		return
	}
	s.log(r).Info("http.revalidated", "slug", msg.Slug, "locale", msg.Locale, "all", msg.All)
	writeJSON(w, http.StatusOK, map[string]any{"revalidated": true, "command": msg})
}

func (s *Server) handleBlocks(w http.ResponseWriter, _ *http.Request) {
	entries := []blocks.MenuEntry{}
	if s.menu != nil {
		entries = append(entries, s.menu.AddMenu()...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": entries})
}

// annotate tags the request context with the fields every log entry of the
// request carries, assembler and command entries included.
func annotate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWithFields(r.Context(), map[string]any{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) log(r *http.Request) interfaces.Logger {
	return s.logger.WithContext(r.Context())
}

// route returns the locale route set by the middleware. Excluded paths carry
// none and are not served as pages.
func (s *Server) route(r *http.Request) (locale.Route, bool) {
	return locale.RouteFromContext(r.Context())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view any) {
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	if err := s.renderer.Render(w, view); err != nil {
		s.log(r).Error("http.render.failed", "error", err)
	}
}

func secretMatches(expected, provided string) bool {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
