// Package source defines the read-only contract of the external content
// source the delivery pipeline fetches pages and tags from.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-delivery/internal/tree"
)

var (
	ErrNotFound           = errors.New("source: page not found")
	ErrUnavailable        = errors.New("source: content source unavailable")
	ErrMissingCredentials = errors.New("source: access credential not configured")
)

// Sort orders accepted by FetchPages.
const (
	SortPublishedDesc = "published_at:desc"
	SortPublishedAsc  = "published_at:asc"
)

// SortPages orders pages by publish time following order, newest first unless
// order is SortPublishedAsc. Equal times fall back to ID.
func SortPages(pages []*tree.Page, order string) {
	ascending := order == SortPublishedAsc
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i].Meta.PublishedAt, pages[j].Meta.PublishedAt
		if !a.Equal(b) {
			if ascending {
				return a.Before(b)
			}
			return a.After(b)
		}
		return pages[i].ID < pages[j].ID
	})
}

// PageQuery selects one page.
type PageQuery struct {
	Type   string
	Slug   string
	Locale string
}

// Key renders the query as a stable cache key.
func (q PageQuery) Key() string {
	return strings.Join([]string{"page", q.Locale, q.Type, q.Slug}, "|")
}

// ListQuery selects a page listing. Tag is optional.
type ListQuery struct {
	Type     string
	Tag      string
	Locale   string
	PageSize int
	Sort     string
}

// Key renders the query as a stable cache key.
func (q ListQuery) Key() string {
	return fmt.Sprintf("pages|%s|%s|%s|%d|%s", q.Locale, q.Type, q.Tag, q.PageSize, q.Sort)
}

// Source is the external content source. Every call is read-only and
// honours ctx cancellation.
type Source interface {
	FetchPage(ctx context.Context, query PageQuery) (*tree.Page, error)
	FetchPages(ctx context.Context, query ListQuery) ([]*tree.Page, error)
	FetchTags(ctx context.Context) ([]string, error)
	FetchPagePreview(ctx context.Context, token string) (*tree.Page, error)
}

// CredentialChecker is implemented by sources that need an access key.
type CredentialChecker interface {
	HasCredentials() bool
}

// HasCredentials reports whether src can be called. Sources that do not
// implement CredentialChecker need no credential.
func HasCredentials(src Source) bool {
	if src == nil {
		return false
	}
	checker, ok := src.(CredentialChecker)
	if !ok {
		return true
	}
	return checker.HasCredentials()
}

// FetchError decorates a source failure with the failing operation.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return "source: " + e.Op + " failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fail wraps err as a FetchError for op.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Op: op, Err: err}
}
