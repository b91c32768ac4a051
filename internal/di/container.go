package di

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/blocks"
	cachecmd "github.com/goliatone/go-delivery/internal/commands/cache"
	deliveryhttp "github.com/goliatone/go-delivery/internal/http"
	"github.com/goliatone/go-delivery/internal/locale"
	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/logging/console"
	"github.com/goliatone/go-delivery/internal/logging/gologger"
	"github.com/goliatone/go-delivery/internal/logging/zaplogger"
	"github.com/goliatone/go-delivery/internal/overlay"
	"github.com/goliatone/go-delivery/internal/runtimeconfig"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/source/cachedsource"
	"github.com/goliatone/go-delivery/internal/source/filesource"
	"github.com/goliatone/go-delivery/internal/source/httpsource"
	"github.com/goliatone/go-delivery/pkg/interfaces"
	"go.opentelemetry.io/otel/trace"
)

// Container wires the delivery pipeline from configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider  interfaces.LoggerProvider
	syncLogger      func() error
	httpClient      *http.Client
	contentFS       fs.FS
	tracer          trace.Tracer
	commandRegistry cachecmd.CommandRegistry

	source      source.Source
	cache       *cachedsource.Source
	registry    *blocks.Registry
	resolver    *locale.Resolver
	assembler   *assembler.Assembler
	binder      overlay.Binder
	revalidator *cachecmd.InvalidateCacheHandler
	server      *deliveryhttp.Server
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithSource overrides the configured content source. The cache still wraps
// it when enabled.
func WithSource(src source.Source) Option {
	return func(c *Container) {
		c.source = src
	}
}

// WithRegistry replaces the built-in block registry.
func WithRegistry(reg *blocks.Registry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithHTTPClient sets the client used by the http source.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithContentFS serves the filesystem source from fsys instead of
// Source.ContentDir.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.contentFS = fsys
	}
}

// WithTracer sets the tracer handed to the assembler.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		c.tracer = tracer
	}
}

// WithCommandRegistry registers the cache commands with reg.
func WithCommandRegistry(reg cachecmd.CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// NewContainer validates cfg and builds every component.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLogging,
		c.configureSource,
		c.configurePipeline,
		c.configureServer,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		provider, err := c.buildLoggerProvider()
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	if flusher, ok := c.loggerProvider.(interfaces.Flusher); ok {
		c.syncLogger = flusher.Sync
	}
	return nil
}

func (c *Container) buildLoggerProvider() (interfaces.LoggerProvider, error) {
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case runtimeconfig.LoggingGoLogger:
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("di: gologger provider: %w", err)
		}
		return provider, nil
	case runtimeconfig.LoggingZap:
		provider, err := zaplogger.NewProvider(zaplogger.Config{
			Mode:  cfg.Format,
			Level: zapLevel(cfg.Level),
		})
		if err != nil {
			return nil, fmt.Errorf("di: zap provider: %w", err)
		}
		return provider, nil
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}

func zapLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return "debug"
	case "warning":
		return "warn"
	default:
		return level
	}
}

func (c *Container) configureSource() error {
	logger := logging.SourceLogger(c.loggerProvider)
	if c.source == nil {
		cfg := c.Config.Source
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case runtimeconfig.SourceFilesystem:
			if c.contentFS != nil {
				c.source = filesource.New(c.contentFS, filesource.WithLogger(logger))
				break
			}
			src, err := filesource.Open(cfg.ContentDir, filesource.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("di: filesystem source: %w", err)
			}
			c.source = src
		case runtimeconfig.SourceMemory:
			mem := source.NewMemory()
			source.SeedDemo(mem, c.Config.Locales...)
			c.source = mem
		default:
			opts := []httpsource.Option{httpsource.WithLogger(logger)}
			if c.httpClient != nil {
				opts = append(opts, httpsource.WithHTTPClient(c.httpClient))
			}
			client, err := httpsource.New(httpsource.Config{
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.APIKey,
				Timeout: cfg.Timeout,
			}, opts...)
			if err != nil {
				return fmt.Errorf("di: http source: %w", err)
			}
			c.source = client
		}
	}
	if !source.HasCredentials(c.source) {
		logger.Warn("source.credentials.missing", "provider", c.Config.Source.Provider)
	}

	if c.Config.Cache.Enabled {
		c.cache = cachedsource.New(c.source, cachedsource.Config{
			TTL:      c.Config.Cache.TTL,
			Capacity: c.Config.Cache.Capacity,
			Shards:   c.Config.Cache.Shards,
		}, cachedsource.WithLogger(logger))
	}
	return nil
}

func (c *Container) configurePipeline() error {
	if c.registry == nil {
		c.registry = blocks.BuiltinRegistry()
	}

	resolver, err := locale.NewResolver(c.Config.DefaultLocale, c.Config.Locales)
	if err != nil {
		return err
	}
	c.resolver = resolver

	cfg := c.Config.Assembler
	opts := []assembler.Option{
		assembler.WithLogger(logging.AssemblerLogger(c.loggerProvider)),
		assembler.WithStructuralSlugs(cfg.HeaderSlug, cfg.FooterSlug),
		assembler.WithPageTypes(cfg.PageTypes, cfg.HeaderTypes, cfg.FooterTypes),
		assembler.WithListingPageSize(cfg.PageSize),
	}
	if c.tracer != nil {
		opts = append(opts, assembler.WithTracer(c.tracer))
	}
	c.assembler = assembler.New(c.Source(), c.registry, opts...)

	if c.cache != nil {
		handler, err := cachecmd.Register(c.commandRegistry, c.cache, c.loggerProvider)
		if err != nil {
			return err
		}
		c.revalidator = handler
	}
	return nil
}

func (c *Container) configureServer() error {
	binder, err := overlay.NewJSONBinder(c.Config.HTTP.EditorURL)
	if err != nil {
		return err
	}
	c.binder = binder

	opts := []deliveryhttp.Option{
		deliveryhttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		deliveryhttp.WithLocaleLogger(logging.LocaleLogger(c.loggerProvider)),
		deliveryhttp.WithSecrets(c.Config.HTTP.PreviewSecret, c.Config.HTTP.RevalidateSecret),
		deliveryhttp.WithBinder(binder),
		deliveryhttp.WithMenu(c.registry),
		deliveryhttp.WithExclusions(locale.NewExclusions(c.Config.Routing.Exclusions...)),
	}
	if c.revalidator != nil {
		opts = append(opts, deliveryhttp.WithRevalidator(c.revalidator))
	}
	server, err := deliveryhttp.NewServer(c.assembler, c.resolver, opts...)
	if err != nil {
		return err
	}
	c.server = server
	return nil
}

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Source returns the source the assembler reads, cached when enabled.
func (c *Container) Source() source.Source {
	if c.cache != nil {
		return c.cache
	}
	return c.source
}

// Cache returns the revalidation cache, or nil when disabled.
func (c *Container) Cache() *cachedsource.Source {
	return c.cache
}

func (c *Container) Registry() *blocks.Registry {
	return c.registry
}

func (c *Container) Resolver() *locale.Resolver {
	return c.resolver
}

func (c *Container) Assembler() *assembler.Assembler {
	return c.assembler
}

// Revalidator returns the cache command handler, or nil when the cache is
// disabled.
func (c *Container) Revalidator() *cachecmd.InvalidateCacheHandler {
	return c.revalidator
}

func (c *Container) Server() *deliveryhttp.Server {
	return c.server
}

// Close flushes buffered log output.
func (c *Container) Close() error {
	if c.syncLogger == nil {
		return nil
	}
	return c.syncLogger()
}
