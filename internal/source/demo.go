package source

import (
	"time"

	"github.com/goliatone/go-delivery/internal/tree"
)

// DemoAPIKey is the credential SeedDemo installs on the memory source.
const DemoAPIKey = "demo"

// DemoPreviewToken resolves to a draft page in the first seeded locale.
const DemoPreviewToken = "demo-preview"

var demoGreetings = map[string]string{
	"en": "Welcome",
	"fr": "Bienvenue",
	"de": "Willkommen",
	"es": "Bienvenido",
}

// SeedDemo fills m with a header, footer, home page and two blog posts per
// locale. It defaults to "en" when no locale is given.
func SeedDemo(m *Memory, locales ...string) {
	if m == nil {
		return
	}
	if len(locales) == 0 {
		locales = []string{"en"}
	}
	m.mu.Lock()
	m.apiKey = DemoAPIKey
	m.keyed = true
	m.mu.Unlock()

	published := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	for _, code := range locales {
		greeting, ok := demoGreetings[code]
		if !ok {
			greeting = demoGreetings["en"]
		}
		m.Put(
			&tree.Page{ID: "header-" + code, Type: "header", Slug: "header", Locale: code, Root: []tree.Node{
				{Type: "navigation", ID: "nav", Props: tree.Props{
					{Name: "sticky", Value: tree.Boolean(true)},
					{Name: "links", Value: tree.Slot{
						demoLink("home", "Home", "/"),
						demoLink("blog", "Blog", "/tags/news"),
					}},
				}},
			}},
			&tree.Page{ID: "footer-" + code, Type: "footer", Slug: "footer", Locale: code, Root: []tree.Node{
				{Type: "copyright", ID: "copyright", Props: tree.Props{{Name: "text", Value: tree.PlainText("Demo Co.")}}},
			}},
			&tree.Page{ID: "home-" + code, Type: "page", Slug: "/", Locale: code, Meta: tree.Meta{Title: greeting}, Root: []tree.Node{
				{Type: "hero", ID: "hero", Props: tree.Props{
					{Name: "title", Value: tree.PlainText(greeting)},
					{Name: "actions", Value: tree.Slot{{Type: "button", ID: "cta", Props: tree.Props{
						{Name: "label", Value: tree.PlainText("Read the blog")},
						{Name: "link", Value: tree.LinkTarget{Path: "/tags/news"}},
					}}}},
				}},
				{Type: "spacer", ID: "gap"},
			}},
			demoPost(code, "launch", "We launched", published, "news"),
			demoPost(code, "roadmap", "What comes next", published.AddDate(0, 1, 0), "news", "roadmap"),
		)
	}

	draft := demoPost(locales[0], "draft", "Unpublished draft", published.AddDate(0, 2, 0))
	m.PutPreview(DemoPreviewToken, draft)
	m.SetTags("news", "roadmap")
}

func demoLink(id, label, path string) tree.Node {
	return tree.Node{Type: "nav-link", ID: "link-" + id, Props: tree.Props{
		{Name: "label", Value: tree.PlainText(label)},
		{Name: "link", Value: tree.LinkTarget{Path: path}},
	}}
}

func demoPost(locale, slug, title string, published time.Time, tags ...string) *tree.Page {
	return &tree.Page{
		ID:     slug + "-" + locale,
		Type:   "blog-post",
		Slug:   "/blog/" + slug,
		Locale: locale,
		Meta:   tree.Meta{Title: title, Tags: tags, PublishedAt: published},
		Root: []tree.Node{
			{Type: "post-body", ID: "body", Props: tree.Props{{Name: "body", Value: tree.RichText{Blocks: []tree.TextBlock{{
				Style: tree.StyleParagraph,
				Spans: []tree.Span{{Text: title + "."}},
			}}}}}},
		},
	}
}
