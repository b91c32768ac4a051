// Package delivery assembles localized pages from a headless content source
// and serves them over HTTP.
package delivery

import (
	"context"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/blocks"
	"github.com/goliatone/go-delivery/internal/di"
	"github.com/goliatone/go-delivery/internal/locale"
	"github.com/goliatone/go-delivery/internal/render"
	"github.com/goliatone/go-delivery/internal/runtimeconfig"
	"github.com/goliatone/go-delivery/pkg/interfaces"
)

var (
	ErrDefaultLocaleUnsupported = runtimeconfig.ErrDefaultLocaleUnsupported
	ErrSourceProviderUnknown    = runtimeconfig.ErrSourceProviderUnknown
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
)

type (
	Config          = runtimeconfig.Config
	SourceConfig    = runtimeconfig.SourceConfig
	CacheConfig     = runtimeconfig.CacheConfig
	AssemblerConfig = runtimeconfig.AssemblerConfig
	RoutingConfig   = runtimeconfig.RoutingConfig
	HTTPConfig      = runtimeconfig.HTTPConfig
	LoggingConfig   = runtimeconfig.LoggingConfig

	// RenderPlan is the assembled header, main and footer of one request.
	RenderPlan = assembler.RenderPlan
	// ListingPlan is an assembled tag listing.
	ListingPlan = assembler.ListingPlan
	// ListingRequest selects a listing.
	ListingRequest = assembler.ListingRequest
	// View is a render plan composed for output.
	View = render.View
	// MenuEntry is one item of the editor add-menu.
	MenuEntry = blocks.MenuEntry
	// Route is a resolved locale and remainder path.
	Route = locale.Route
	// Resolution is the locale resolver decision for a path.
	Resolution = locale.Result
)

// DefaultConfig returns the opinionated defaults.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}

// Module is the top level delivery runtime.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Assemble builds the render plan for slug in code.
func (m *Module) Assemble(ctx context.Context, code, slug string) (*RenderPlan, error) {
	return m.container.Assembler().Assemble(ctx, code, slug)
}

// AssemblePreview builds the render plan of a draft.
func (m *Module) AssemblePreview(ctx context.Context, token string) (*RenderPlan, error) {
	return m.container.Assembler().AssemblePreview(ctx, token)
}

// AssembleListing builds a tag listing.
func (m *Module) AssembleListing(ctx context.Context, req ListingRequest) (*ListingPlan, error) {
	return m.container.Assembler().AssembleListing(ctx, req)
}

// Compose turns a plan into its output view.
func (m *Module) Compose(plan *RenderPlan) View {
	return render.Compose(plan)
}

// Resolve returns the locale decision for path.
func (m *Module) Resolve(path string) Resolution {
	return m.container.Resolver().Resolve(path)
}

// AddMenu lists the block types an editor can insert.
func (m *Module) AddMenu() []MenuEntry {
	return m.container.Registry().AddMenu()
}

// Logger returns a module-scoped logger from the configured provider.
func (m *Module) Logger(module string) interfaces.Logger {
	provider := m.container.LoggerProvider()
	if provider == nil {
		return nil
	}
	return provider.GetLogger(module)
}

// Serve runs the HTTP server on the configured address until ctx is done.
func (m *Module) Serve(ctx context.Context) error {
	return m.container.Server().ListenAndServe(ctx, m.container.Config.HTTP.Addr)
}

// Close releases logging resources.
func (m *Module) Close() error {
	return m.container.Close()
}
