package source

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-delivery/internal/tree"
)

// Operations counted and failable on Memory.
const (
	OpFetchPage        = "fetch_page"
	OpFetchPages       = "fetch_pages"
	OpFetchTags        = "fetch_tags"
	OpFetchPagePreview = "fetch_page_preview"
)

// Memory is an in-memory Source with call counters and injectable
// failures. Stored pages are returned as-is and must not be mutated by
// callers.
type Memory struct {
	mu       sync.Mutex
	pages    map[string]*tree.Page
	previews map[string]*tree.Page
	tags     []string
	failures map[string]error
	slugFail map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
	apiKey   string
	keyed    bool
}

var (
	_ Source            = (*Memory)(nil)
	_ CredentialChecker = (*Memory)(nil)
)

// MemoryOption configures a Memory source.
type MemoryOption func(*Memory)

// WithAPIKey makes the source report credentials only when key is non-empty.
func WithAPIKey(key string) MemoryOption {
	return func(m *Memory) {
		m.apiKey = key
		m.keyed = true
	}
}

// NewMemory builds an empty in-memory source.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		pages:    map[string]*tree.Page{},
		previews: map[string]*tree.Page{},
		failures: map[string]error{},
		slugFail: map[string]error{},
		delays:   map[string]time.Duration{},
		calls:    map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// HasCredentials satisfies CredentialChecker.
func (m *Memory) HasCredentials() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.keyed || m.apiKey != ""
}

// Put stores page under its locale and slug, replacing any page already
// stored there.
func (m *Memory) Put(pages ...*tree.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, page := range pages {
		if page == nil {
			continue
		}
		m.pages[pageKey(page.Locale, page.Slug)] = page
	}
}

// PutPreview stores page under a preview token.
func (m *Memory) PutPreview(token string, page *tree.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews[token] = page
}

// SetTags replaces the tag vocabulary.
func (m *Memory) SetTags(tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append([]string(nil), tags...)
}

// Fail makes every call of op return err. A nil err clears the failure.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// FailSlug makes FetchPage return err for one slug in any locale.
func (m *Memory) FailSlug(slug string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.slugFail, slug)
		return
	}
	m.slugFail[slug] = err
}

// Delay makes op wait for d, or until its context ends.
func (m *Memory) Delay(op string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[op] = d
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls sums the calls of every operation.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, count := range m.calls {
		total += count
	}
	return total
}

func (m *Memory) FetchPage(ctx context.Context, query PageQuery) (*tree.Page, error) {
	if err := m.enter(ctx, OpFetchPage); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.slugFail[query.Slug]; err != nil {
		return nil, Fail(OpFetchPage, err)
	}
	page, ok := m.pages[pageKey(query.Locale, query.Slug)]
	if !ok || (query.Type != "" && page.Type != query.Type) {
		return nil, Fail(OpFetchPage, ErrNotFound)
	}
	return page, nil
}

func (m *Memory) FetchPages(ctx context.Context, query ListQuery) ([]*tree.Page, error) {
	if err := m.enter(ctx, OpFetchPages); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*tree.Page{}
	for _, page := range m.pages {
		if query.Locale != "" && page.Locale != query.Locale {
			continue
		}
		if query.Type != "" && page.Type != query.Type {
			continue
		}
		if query.Tag != "" && !hasTag(page, query.Tag) {
			continue
		}
		out = append(out, page)
	}
	SortPages(out, query.Sort)
	if query.PageSize > 0 && len(out) > query.PageSize {
		out = out[:query.PageSize]
	}
	return out, nil
}

func (m *Memory) FetchTags(ctx context.Context) ([]string, error) {
	if err := m.enter(ctx, OpFetchTags); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tags...), nil
}

func (m *Memory) FetchPagePreview(ctx context.Context, token string) (*tree.Page, error) {
	if err := m.enter(ctx, OpFetchPagePreview); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.previews[token]
	if !ok || page == nil {
		return nil, Fail(OpFetchPagePreview, ErrUnavailable)
	}
	return page, nil
}

// enter counts the call and applies cancellation and injected failures.
func (m *Memory) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	failure := m.failures[op]
	delay := m.delays[op]
	m.mu.Unlock()
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Fail(op, err)
	}
	if failure != nil {
		return Fail(op, failure)
	}
	return nil
}

func hasTag(page *tree.Page, tag string) bool {
	for _, candidate := range page.Meta.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

func pageKey(locale, slug string) string {
	return locale + "|" + slug
}
