package tree_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/google/go-cmp/cmp"
)

const homePayload = `{
  "id": "home",
  "model": "page",
  "slug": "/",
  "locale": "en",
  "title": "Home",
  "tags": ["intro", "", 4],
  "published_at": 1700000000000,
  "blocks": [
    {"type": "heading", "id": "h1", "props": {"text": "Welcome", "level": 1, "level": 2}},
    {"@type": "section", "props": {
      "padded": true,
      "children": [
        {"type": "image", "props": {"image": {"$kind": "image", "src": "https://cdn.test/a.png", "alt": "A"}}},
        "stray",
        {"type": "button", "props": {"link": {"$kind": "link", "path": "/about", "target": "_blank"}}}
      ]
    }},
    {"type": "text", "props": {"body": {"$kind": "richtext", "blocks": [{"style": "paragraph", "spans": [{"text": "Hi", "bold": true}]}]}, "weird": null, "obj": {"a": 1}}}
  ]
}`

func TestDecodePage(t *testing.T) {
	page, err := tree.DecodePage([]byte(homePayload))
	if err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.ID != "home" || page.Type != "page" || page.Slug != "/" || page.Locale != "en" {
		t.Fatalf("unexpected envelope %+v", page)
	}
	if diff := cmp.Diff([]string{"intro"}, page.Meta.Tags); diff != "" {
		t.Fatalf("unexpected tags (-want +got):\n%s", diff)
	}
	if !page.Meta.PublishedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("unexpected publish time %s", page.Meta.PublishedAt)
	}
	if len(page.Root) != 3 {
		t.Fatalf("expected 3 root nodes got %d", len(page.Root))
	}

	level, _ := page.Root[0].Props.Get("level")
	if level != tree.Number(2) {
		t.Fatalf("expected duplicate key to keep last value got %v", level)
	}

	children := page.Root[1].Children()
	if len(children) != 3 {
		t.Fatalf("expected non-object slot element to keep its position got %d children", len(children))
	}
	if children[1].Type != "" {
		t.Fatalf("expected stray element to decode as untyped node got %q", children[1].Type)
	}
	image, _ := children[0].Props.Get("image")
	if image != (tree.ImageRef{Src: "https://cdn.test/a.png", Alt: "A"}) {
		t.Fatalf("unexpected image %+v", image)
	}
	link, _ := children[2].Props.Get("link")
	if link != (tree.LinkTarget{Path: "/about", Target: tree.TargetBlank}) {
		t.Fatalf("unexpected link %+v", link)
	}

	body, _ := page.Root[2].Props.Get("body")
	rich, ok := body.(tree.RichText)
	if !ok || rich.PlainString() != "Hi" || !rich.Blocks[0].Spans[0].Bold {
		t.Fatalf("unexpected rich text %+v", body)
	}
	for _, name := range []string{"weird", "obj"} {
		value, _ := page.Root[2].Props.Get(name)
		if value.Kind() != tree.KindUnknown {
			t.Fatalf("expected %s to decode as unknown got %s", name, value.Kind())
		}
	}
}

func TestDecodePageRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[]`, `"page"`, `{"id":`, ``} {
		if _, err := tree.DecodePage([]byte(payload)); !errors.Is(err, tree.ErrPageEnvelopeInvalid) {
			t.Fatalf("expected ErrPageEnvelopeInvalid for %q got %v", payload, err)
		}
	}
}

func TestDecodePagesSkipsNonObjects(t *testing.T) {
	pages, err := tree.DecodePages([]byte(`[{"id":"a"}, 3, {"id":"b"}]`))
	if err != nil {
		t.Fatalf("decode pages: %v", err)
	}
	if len(pages) != 2 || pages[0].ID != "a" || pages[1].ID != "b" {
		t.Fatalf("unexpected pages %+v", pages)
	}
}

func TestNodeMarshalPreservesPropOrder(t *testing.T) {
	node := tree.Node{Type: "heading", ID: "h", Props: tree.Props{
		{Name: "text", Value: tree.PlainText("Hi")},
		{Name: "level", Value: tree.Number(2)},
		{Name: "link", Value: tree.LinkTarget{Path: "/"}},
	}}

	encoded, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("marshal node: %v", err)
	}
	want := `{"type":"heading","id":"h","props":{"text":"Hi","level":2,"link":{"$kind":"link","path":"/"}}}`
	if string(encoded) != want {
		t.Fatalf("expected %s got %s", want, encoded)
	}
}

func TestPageMarshalFlattensMeta(t *testing.T) {
	page := tree.Page{
		ID:   "p",
		Type: "page",
		Slug: "about",
		Meta: tree.Meta{Title: "About", PublishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	encoded, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal page: %v", err)
	}
	for _, fragment := range []string{`"title":"About"`, `"publishedAt":"2024-05-01T10:00:00Z"`, `"blocks":[]`} {
		if !strings.Contains(string(encoded), fragment) {
			t.Fatalf("expected %s in %s", fragment, encoded)
		}
	}
}

func TestValueValidity(t *testing.T) {
	cases := []struct {
		name  string
		value tree.Value
		valid bool
	}{
		{name: "relative link", value: tree.LinkTarget{Path: "/about"}, valid: true},
		{name: "mailto link", value: tree.LinkTarget{Path: "mailto:hi@example.com"}, valid: true},
		{name: "script link", value: tree.LinkTarget{Path: "javascript:alert(1)"}, valid: false},
		{name: "bad window", value: tree.LinkTarget{Path: "/", Target: "_parent"}, valid: false},
		{name: "https image", value: tree.ImageRef{Src: "https://cdn.test/a.png"}, valid: true},
		{name: "data image", value: tree.ImageRef{Src: "data:image/png;base64,AAAA"}, valid: false},
		{name: "negative width", value: tree.ImageRef{Src: "/a.png", Width: -1}, valid: false},
		{name: "heading level", value: tree.RichText{Blocks: []tree.TextBlock{{Style: tree.StyleHeading, Level: 7}}}, valid: false},
		{name: "unknown style", value: tree.RichText{Blocks: []tree.TextBlock{{Style: "marquee"}}}, valid: false},
		{name: "unknown", value: tree.Unknown{}, valid: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.value.Valid(); got != tc.valid {
				t.Fatalf("expected valid=%v got %v", tc.valid, got)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, ok := tree.ParseKind("LinkTarget")
	if !ok || kind != tree.KindLinkTarget {
		t.Fatalf("expected link target kind got %v (%v)", kind, ok)
	}
	if _, ok := tree.ParseKind("video"); ok {
		t.Fatalf("expected unknown label to fail")
	}
}
