// Package filesource implements source.Source over a directory of
// Markdown files laid out as <locale>/<type>/<slug>.md.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/goliatone/go-delivery/pkg/interfaces"
	"github.com/goliatone/go-slug"
)

const (
	fileExt = ".md"
	// IndexSlug names the file that serves the root slug "/".
	IndexSlug = "index"
	// BodyBlockType is the block type that carries a file's Markdown body.
	BodyBlockType = "text"
	bodyPropName  = "body"
)

var ErrContentDirRequired = errors.New("filesource: content directory required")

// Option customises a Source.
type Option func(*Source)

// WithLogger sets the source logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Source reads pages from a filesystem. Drafts are only reachable through
// their preview token.
type Source struct {
	fsys      fs.FS
	converter *RichTextConverter
	logger    interfaces.Logger
}

var _ source.Source = (*Source)(nil)

// New builds a source over fsys.
func New(fsys fs.FS, opts ...Option) *Source {
	s := &Source{
		fsys:      fsys,
		converter: NewRichTextConverter(),
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open builds a source over the directory dir.
func Open(dir string, opts ...Option) (*Source, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ErrContentDirRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("filesource: open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesource: %s is not a directory", dir)
	}
	return New(os.DirFS(dir), opts...), nil
}

// PagePath returns the file path that holds query.
func PagePath(query source.PageQuery) (string, bool) {
	file := strings.Trim(strings.TrimSpace(query.Slug), "/")
	if file == "" {
		file = IndexSlug
	}
	name := path.Join(strings.TrimSpace(query.Locale), strings.TrimSpace(query.Type), file) + fileExt
	if !fs.ValidPath(name) || strings.Count(name, "/") < 2 {
		return "", false
	}
	return name, true
}

func (s *Source) FetchPage(ctx context.Context, query source.PageQuery) (*tree.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, source.Fail(source.OpFetchPage, fmt.Errorf("%w: %w", source.ErrUnavailable, err))
	}
	if strings.TrimSpace(query.Type) == "" {
		page, err := s.findBySlug(ctx, query)
		if err != nil {
			return nil, source.Fail(source.OpFetchPage, err)
		}
		return page, nil
	}
	name, ok := PagePath(query)
	if !ok {
		return nil, source.Fail(source.OpFetchPage, source.ErrNotFound)
	}
	page, draft, err := s.load(name)
	if err != nil {
		return nil, source.Fail(source.OpFetchPage, err)
	}
	if draft {
		return nil, source.Fail(source.OpFetchPage, source.ErrNotFound)
	}
	return page, nil
}

// findBySlug scans every type directory of the locale for the slug.
func (s *Source) findBySlug(ctx context.Context, query source.PageQuery) (*tree.Page, error) {
	locale := strings.TrimSpace(query.Locale)
	entries, err := fs.ReadDir(s.fsys, locale)
	if err != nil {
		return nil, mapFSError(err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
		}
		name, ok := PagePath(source.PageQuery{Locale: locale, Type: entry.Name(), Slug: query.Slug})
		if !ok {
			continue
		}
		page, draft, err := s.load(name)
		if errors.Is(err, source.ErrNotFound) || draft {
			continue
		}
		if err != nil {
			return nil, err
		}
		return page, nil
	}
	return nil, source.ErrNotFound
}

func (s *Source) FetchPages(ctx context.Context, query source.ListQuery) ([]*tree.Page, error) {
	var pages []*tree.Page
	err := s.walk(ctx, strings.TrimSpace(query.Locale), func(page *tree.Page, fm frontMatter) {
		if fm.Draft {
			return
		}
		if query.Type != "" && page.Type != query.Type {
			return
		}
		if query.Tag != "" && !hasTag(page.Meta.Tags, query.Tag) {
			return
		}
		pages = append(pages, page)
	})
	if err != nil {
		return nil, source.Fail(source.OpFetchPages, err)
	}

	source.SortPages(pages, query.Sort)
	if query.PageSize > 0 && len(pages) > query.PageSize {
		pages = pages[:query.PageSize]
	}
	return pages, nil
}

func (s *Source) FetchTags(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	err := s.walk(ctx, ".", func(page *tree.Page, fm frontMatter) {
		if fm.Draft {
			return
		}
		for _, tag := range page.Meta.Tags {
			seen[tag] = struct{}{}
		}
	})
	if err != nil {
		return nil, source.Fail(source.OpFetchTags, err)
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// FetchPagePreview returns the page whose frontmatter carries token,
// including drafts.
func (s *Source) FetchPagePreview(ctx context.Context, token string) (*tree.Page, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, source.Fail(source.OpFetchPagePreview, source.ErrNotFound)
	}
	var found *tree.Page
	err := s.walk(ctx, ".", func(page *tree.Page, fm frontMatter) {
		if found == nil && fm.PreviewToken == token {
			found = page
		}
	})
	if err != nil {
		return nil, source.Fail(source.OpFetchPagePreview, err)
	}
	if found == nil {
		return nil, source.Fail(source.OpFetchPagePreview, source.ErrNotFound)
	}
	return found, nil
}

// walk visits every page file below root. Files that fail to parse are
// logged and skipped.
func (s *Source) walk(ctx context.Context, root string, visit func(*tree.Page, frontMatter)) error {
	if root == "" {
		root = "."
	}
	err := fs.WalkDir(s.fsys, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || path.Ext(name) != fileExt {
			return nil
		}
		page, fm, loadErr := s.parse(name)
		if loadErr != nil {
			s.logger.Warn("source.file.skipped", "path", name, "error", loadErr)
			return nil
		}
		visit(page, fm)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && root != "." {
			return nil
		}
		return fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}
	return nil
}

func (s *Source) load(name string) (*tree.Page, bool, error) {
	page, fm, err := s.parse(name)
	if err != nil {
		return nil, false, err
	}
	return page, fm.Draft, nil
}

func (s *Source) parse(name string) (*tree.Page, frontMatter, error) {
	locale, pageType, pageSlug, ok := splitPath(name)
	if !ok {
		return nil, frontMatter{}, source.ErrNotFound
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, frontMatter{}, mapFSError(err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, frontMatter{}, fmt.Errorf("%w: %s: %v", source.ErrUnavailable, name, err)
	}
	nodes, err := doc.meta.nodes()
	if err != nil {
		return nil, frontMatter{}, fmt.Errorf("%w: %s: %v", source.ErrUnavailable, name, err)
	}
	if len(doc.body) > 0 {
		nodes = append(nodes, tree.Node{
			Type:  BodyBlockType,
			Props: tree.Props{{Name: bodyPropName, Value: s.converter.Convert(doc.body)}},
		})
	}

	id := strings.TrimSpace(doc.meta.ID)
	if id == "" {
		id = strings.TrimSuffix(name, fileExt)
	}
	return &tree.Page{
		ID:     id,
		Type:   pageType,
		Slug:   pageSlug,
		Locale: locale,
		Root:   nodes,
		Meta:   doc.meta.treeMeta(),
	}, doc.meta, nil
}

// splitPath maps "<locale>/<type>/<slug...>.md" back to its parts.
func splitPath(name string) (locale, pageType, pageSlug string, ok bool) {
	parts := strings.SplitN(strings.TrimSuffix(name, fileExt), "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	pageSlug = parts[2]
	if pageSlug == IndexSlug {
		pageSlug = "/"
	}
	return parts[0], parts[1], pageSlug, true
}

// hasTag matches want against tags directly or by slug form.
func hasTag(tags []string, want string) bool {
	normalizer := slug.Default()
	wantSlug, _ := normalizer.Normalize(want)
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
		if tagSlug, err := normalizer.Normalize(tag); err == nil && tagSlug != "" && tagSlug == wantSlug {
			return true
		}
	}
	return false
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return source.ErrNotFound
	}
	return fmt.Errorf("%w: %v", source.ErrUnavailable, err)
}
