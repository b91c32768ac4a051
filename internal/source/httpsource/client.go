// Package httpsource implements source.Source over the content source's
// read-only HTTP API.
package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/goliatone/go-delivery/pkg/interfaces"
	urlkit "github.com/goliatone/go-urlkit"
)

// Route names registered on the content group.
const (
	GroupContent = "content"
	RoutePage    = "page"
	RoutePages   = "pages"
	RouteTags    = "tags"
	RoutePreview = "preview"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var ErrBaseURLRequired = errors.New("httpsource: base url required")

// Config describes the remote content API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Paths overrides the default route templates by route name.
	Paths map[string]string
}

// DefaultPaths returns the route templates used when Config.Paths omits one.
func DefaultPaths() map[string]string {
	return map[string]string{
		RoutePage:    "/v1/pages/lookup",
		RoutePages:   "/v1/pages",
		RouteTags:    "/v1/tags",
		RoutePreview: "/v1/previews",
	}
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client reads pages and tags from the remote content API.
type Client struct {
	apiKey string
	http   *http.Client
	routes *urlkit.RouteManager
	group  *urlkit.Group
	logger interfaces.Logger
}

var (
	_ source.Source            = (*Client)(nil)
	_ source.CredentialChecker = (*Client)(nil)
)

// New builds a client for cfg. A missing API key is not an error here; the
// client then reports no credentials and the assembler short-circuits.
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	paths := DefaultPaths()
	for name, path := range cfg.Paths {
		if strings.TrimSpace(path) != "" {
			paths[name] = path
		}
	}

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{{
			Name:    GroupContent,
			BaseURL: base,
			Paths:   paths,
		}},
	})
	group, err := lookupGroup(manager, GroupContent)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   &http.Client{Timeout: timeout},
		routes: manager,
		group:  group,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

// Routes exposes the route manager backing the client.
func (c *Client) Routes() *urlkit.RouteManager {
	return c.routes
}

func (c *Client) FetchPage(ctx context.Context, query source.PageQuery) (*tree.Page, error) {
	body, err := c.get(ctx, RoutePage, map[string]string{
		"type":   query.Type,
		"slug":   query.Slug,
		"locale": query.Locale,
	})
	if err != nil {
		return nil, source.Fail(source.OpFetchPage, err)
	}
	page, err := tree.DecodePage(body)
	if err != nil {
		return nil, source.Fail(source.OpFetchPage, fmt.Errorf("%w: %v", source.ErrUnavailable, err))
	}
	return page, nil
}

func (c *Client) FetchPages(ctx context.Context, query source.ListQuery) ([]*tree.Page, error) {
	params := map[string]string{
		"type":   query.Type,
		"tag":    query.Tag,
		"locale": query.Locale,
		"sort":   query.Sort,
	}
	if query.PageSize > 0 {
		params["page_size"] = strconv.Itoa(query.PageSize)
	}
	body, err := c.get(ctx, RoutePages, params)
	if err != nil {
		return nil, source.Fail(source.OpFetchPages, err)
	}
	pages, err := tree.DecodePages(body)
	if err != nil {
		return nil, source.Fail(source.OpFetchPages, fmt.Errorf("%w: %v", source.ErrUnavailable, err))
	}
	return pages, nil
}

func (c *Client) FetchTags(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, RouteTags, nil)
	if err != nil {
		return nil, source.Fail(source.OpFetchTags, err)
	}
	tags, err := decodeTags(body)
	if err != nil {
		return nil, source.Fail(source.OpFetchTags, fmt.Errorf("%w: %v", source.ErrUnavailable, err))
	}
	return tags, nil
}

func (c *Client) FetchPagePreview(ctx context.Context, token string) (*tree.Page, error) {
	body, err := c.get(ctx, RoutePreview, map[string]string{"token": token})
	if err != nil {
		return nil, source.Fail(source.OpFetchPagePreview, err)
	}
	page, err := tree.DecodePage(body)
	if err != nil {
		return nil, source.Fail(source.OpFetchPagePreview, fmt.Errorf("%w: %v", source.ErrUnavailable, err))
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, route string, query map[string]string) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, source.ErrMissingCredentials
	}
	endpoint, err := c.url(route, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", source.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, ctxErr)
		}
		c.logger.Warn("source.http.transport_failed", "route", route, "error", err)
		return nil, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("source.http.response", "route", route, "status", resp.StatusCode, "elapsed", time.Since(started))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, source.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: status %d", source.ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", source.ErrUnavailable, err)
	}
	return body, nil
}

func (c *Client) url(route string, query map[string]string) (string, error) {
	builder, err := safeBuilder(c.group, route)
	if err != nil {
		return "", err
	}
	for key, value := range query {
		if value = strings.TrimSpace(value); value != "" {
			builder.WithQuery(key, value)
		}
	}
	endpoint, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("httpsource: build %s url: %w", route, err)
	}
	return endpoint, nil
}

// decodeTags accepts a JSON array and keeps only its string elements.
func decodeTags(body []byte) ([]string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		if tag, ok := item.(string); ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("httpsource: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("httpsource: urlkit route %q: %v", route, rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("httpsource: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("httpsource: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}
