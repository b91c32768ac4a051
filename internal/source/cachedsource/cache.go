// Package cachedsource decorates a source.Source with a revalidation
// window backed by sturdyc.
package cachedsource

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/goliatone/go-delivery/pkg/interfaces"
	"github.com/viccon/sturdyc"
)

const (
	DefaultTTL                = 60 * time.Second
	DefaultCapacity           = 10000
	DefaultShards             = 10
	DefaultEvictionPercentage = 10
)

// Config sizes the cache.
type Config struct {
	TTL      time.Duration
	Capacity int
	Shards   int
}

func (c Config) normalized() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Shards <= 0 {
		c.Shards = DefaultShards
	}
	return c
}

type clients struct {
	pages    *sturdyc.Client[*tree.Page]
	listings *sturdyc.Client[[]*tree.Page]
	tags     *sturdyc.Client[[]string]
}

// Source caches successful page, listing and tag fetches of the wrapped
// source for the configured TTL. Failures are never cached and previews
// always go to the wrapped source.
type Source struct {
	next   source.Source
	cfg    Config
	logger interfaces.Logger

	mu      sync.RWMutex
	clients clients
}

var (
	_ source.Source            = (*Source)(nil)
	_ source.CredentialChecker = (*Source)(nil)
)

// Option customises a Source.
type Option func(*Source)

// WithLogger sets the cache logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps next.
func New(next source.Source, cfg Config, opts ...Option) *Source {
	s := &Source{
		next:   next,
		cfg:    cfg.normalized(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.clients = s.newClients(true, true, true)
	return s
}

func (s *Source) newClients(pages, listings, tags bool) clients {
	out := s.clients
	if pages {
		out.pages = sturdyc.New[*tree.Page](s.cfg.Capacity, s.cfg.Shards, s.cfg.TTL, DefaultEvictionPercentage)
	}
	if listings {
		out.listings = sturdyc.New[[]*tree.Page](s.cfg.Capacity, s.cfg.Shards, s.cfg.TTL, DefaultEvictionPercentage)
	}
	if tags {
		out.tags = sturdyc.New[[]string](s.cfg.Capacity, s.cfg.Shards, s.cfg.TTL, DefaultEvictionPercentage)
	}
	return out
}

func (s *Source) current() clients {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients
}

// HasCredentials defers to the wrapped source.
func (s *Source) HasCredentials() bool {
	return source.HasCredentials(s.next)
}

func (s *Source) FetchPage(ctx context.Context, query source.PageQuery) (*tree.Page, error) {
	return s.current().pages.GetOrFetch(ctx, query.Key(), func(ctx context.Context) (*tree.Page, error) {
		s.logger.Debug("cache.page.miss", "key", query.Key())
		return s.next.FetchPage(ctx, query)
	})
}

func (s *Source) FetchPages(ctx context.Context, query source.ListQuery) ([]*tree.Page, error) {
	pages, err := s.current().listings.GetOrFetch(ctx, query.Key(), func(ctx context.Context) ([]*tree.Page, error) {
		s.logger.Debug("cache.listing.miss", "key", query.Key())
		return s.next.FetchPages(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return append([]*tree.Page(nil), pages...), nil
}

func (s *Source) FetchTags(ctx context.Context) ([]string, error) {
	tags, err := s.current().tags.GetOrFetch(ctx, "tags", func(ctx context.Context) ([]string, error) {
		s.logger.Debug("cache.tags.miss")
		return s.next.FetchTags(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), tags...), nil
}

// FetchPagePreview is never cached.
func (s *Source) FetchPagePreview(ctx context.Context, token string) (*tree.Page, error) {
	return s.next.FetchPagePreview(ctx, token)
}

// Invalidate drops the cached copy of one page, both under its typed key
// and the untyped key the assembler uses for main content. Listings and
// tags are dropped as well since they may embed the page.
func (s *Source) Invalidate(query source.PageQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients.pages.Delete(query.Key())
	untyped := query
	untyped.Type = ""
	s.clients.pages.Delete(untyped.Key())
	s.clients = s.newClients(false, true, true)
	s.logger.Info("cache.invalidated", "locale", query.Locale, "slug", query.Slug, "type", query.Type)
}

// InvalidateAll drops every cached entry.
func (s *Source) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = s.newClients(true, true, true)
	s.logger.Info("cache.invalidated_all")
}

// Size reports the number of cached pages, listings and tag sets.
func (s *Source) Size() int {
	c := s.current()
	return c.pages.Size() + c.listings.Size() + c.tags.Size()
}
