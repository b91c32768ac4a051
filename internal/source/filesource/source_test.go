package filesource_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/source/filesource"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/google/go-cmp/cmp"
)

const homeFile = `---
id: home-en
title: Home
description: Landing page
tags: [intro]
published_at: 2024-05-01T10:00:00Z
blocks:
  - type: heading
    id: h1
    props:
      text: Welcome
      level: 1
  - type: button
    props:
      label: Docs
      link:
        "$kind": link
        path: /docs
---
Hello **world**, read the [guide](/guide).
`

const postFile = `---
title: Release notes
tags: [news, Go Lang]
published_at: 2024-06-01T00:00:00Z
---
# Changes

- faster
- smaller
`

const olderPostFile = `---
title: Older
tags: [news]
published_at: 2024-01-01T00:00:00Z
---
`

const draftFile = `---
title: Secret
draft: true
preview_token: tok-123
tags: [hidden]
---
Draft body.
`

func contentFS() fstest.MapFS {
	return fstest.MapFS{
		"en/page/index.md":          {Data: []byte(homeFile)},
		"en/header/header.md":       {Data: []byte("---\ntitle: Header\n---\n")},
		"en/blog-post/release.md":   {Data: []byte(postFile)},
		"en/blog-post/older.md":     {Data: []byte(olderPostFile)},
		"en/blog-post/draft.md":     {Data: []byte(draftFile)},
		"en/blog-post/broken.md":    {Data: []byte("---\ntitle: [unterminated\n---\n")},
		"fr/page/index.md":          {Data: []byte("---\ntitle: Accueil\n---\nBonjour.\n")},
		"en/page/notes/overview.md": {Data: []byte("---\ntitle: Nested\n---\n")},
	}
}

func TestFetchPageReadsFrontmatterAndBody(t *testing.T) {
	src := filesource.New(contentFS())

	page, err := src.FetchPage(context.Background(), source.PageQuery{Type: "page", Slug: "/", Locale: "en"})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if page.ID != "home-en" || page.Slug != "/" || page.Type != "page" || page.Locale != "en" {
		t.Fatalf("unexpected envelope %+v", page)
	}
	if page.Meta.Title != "Home" || !page.Meta.PublishedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}
	if len(page.Root) != 3 {
		t.Fatalf("expected 2 frontmatter blocks plus body got %d", len(page.Root))
	}

	level, _ := page.Root[0].Props.Get("level")
	if level != tree.Number(1) {
		t.Fatalf("expected numeric level got %v", level)
	}
	link, _ := page.Root[1].Props.Get("link")
	if link != (tree.LinkTarget{Path: "/docs"}) {
		t.Fatalf("unexpected link %+v", link)
	}

	body := page.Root[2]
	if body.Type != filesource.BodyBlockType {
		t.Fatalf("expected trailing body block got %q", body.Type)
	}
	value, _ := body.Props.Get("body")
	rich, ok := value.(tree.RichText)
	if !ok {
		t.Fatalf("expected rich text body got %T", value)
	}
	want := []tree.Span{
		{Text: "Hello "},
		{Text: "world", Bold: true},
		{Text: ", read the "},
		{Text: "guide", Href: "/guide"},
		{Text: "."},
	}
	if diff := cmp.Diff(want, rich.Blocks[0].Spans); diff != "" {
		t.Fatalf("unexpected spans (-want +got):\n%s", diff)
	}
}

func TestFetchPageWithoutTypeSearchesLocale(t *testing.T) {
	src := filesource.New(contentFS())

	page, err := src.FetchPage(context.Background(), source.PageQuery{Slug: "release", Locale: "en"})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if page.Type != "blog-post" {
		t.Fatalf("expected blog-post got %q", page.Type)
	}
	nested, err := src.FetchPage(context.Background(), source.PageQuery{Slug: "notes/overview", Locale: "en"})
	if err != nil || nested.Slug != "notes/overview" {
		t.Fatalf("expected nested slug got %+v (%v)", nested, err)
	}
}

func TestFetchPageNotFound(t *testing.T) {
	src := filesource.New(contentFS())

	cases := []source.PageQuery{
		{Type: "page", Slug: "missing", Locale: "en"},
		{Type: "page", Slug: "/", Locale: "de"},
		{Type: "page", Slug: "../../etc/passwd", Locale: "en"},
		{Type: "blog-post", Slug: "draft", Locale: "en"},
		{Slug: "missing", Locale: "zz"},
	}
	for _, query := range cases {
		if _, err := src.FetchPage(context.Background(), query); !errors.Is(err, source.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %+v got %v", query, err)
		}
	}
}

func TestFetchPageBrokenFrontmatterIsUnavailable(t *testing.T) {
	src := filesource.New(contentFS())
	_, err := src.FetchPage(context.Background(), source.PageQuery{Type: "blog-post", Slug: "broken", Locale: "en"})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable got %v", err)
	}
}

func TestFetchPagesFiltersAndSorts(t *testing.T) {
	src := filesource.New(contentFS())

	pages, err := src.FetchPages(context.Background(), source.ListQuery{Type: "blog-post", Locale: "en", Tag: "news"})
	if err != nil {
		t.Fatalf("fetch pages: %v", err)
	}
	var slugs []string
	for _, page := range pages {
		slugs = append(slugs, page.Slug)
	}
	if diff := cmp.Diff([]string{"release", "older"}, slugs); diff != "" {
		t.Fatalf("unexpected listing (-want +got):\n%s", diff)
	}

	bySlug, err := src.FetchPages(context.Background(), source.ListQuery{Type: "blog-post", Locale: "en", Tag: "go-lang"})
	if err != nil || len(bySlug) != 1 {
		t.Fatalf("expected slug tag filter to match one page got %d (%v)", len(bySlug), err)
	}

	capped, err := src.FetchPages(context.Background(), source.ListQuery{Type: "blog-post", Locale: "en", PageSize: 1, Sort: source.SortPublishedAsc})
	if err != nil || len(capped) != 1 || capped[0].Slug != "older" {
		t.Fatalf("expected oldest post only got %+v (%v)", capped, err)
	}

	none, err := src.FetchPages(context.Background(), source.ListQuery{Locale: "de"})
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty listing for unknown locale got %d (%v)", len(none), err)
	}
}

func TestFetchTagsSkipsDrafts(t *testing.T) {
	src := filesource.New(contentFS())

	tags, err := src.FetchTags(context.Background())
	if err != nil {
		t.Fatalf("fetch tags: %v", err)
	}
	if diff := cmp.Diff([]string{"Go Lang", "intro", "news"}, tags); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
}

func TestFetchPagePreviewFindsDraft(t *testing.T) {
	src := filesource.New(contentFS())

	page, err := src.FetchPagePreview(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("fetch preview: %v", err)
	}
	if page.Slug != "draft" || page.Meta.Title != "Secret" {
		t.Fatalf("unexpected preview page %+v", page)
	}
	if _, err := src.FetchPagePreview(context.Background(), "nope"); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token got %v", err)
	}
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	src := filesource.New(contentFS())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.FetchTags(ctx); !errors.Is(err, source.ErrUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected unavailable cancellation got %v", err)
	}
}

func TestOpenRequiresDirectory(t *testing.T) {
	if _, err := filesource.Open(""); !errors.Is(err, filesource.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired got %v", err)
	}
	if _, err := filesource.Open(t.TempDir()); err != nil {
		t.Fatalf("open temp dir: %v", err)
	}
}
