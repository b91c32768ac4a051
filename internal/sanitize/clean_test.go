package sanitize_test

import (
	"testing"

	"github.com/goliatone/go-delivery/internal/blocks"
	"github.com/goliatone/go-delivery/internal/sanitize"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/google/go-cmp/cmp"
)

var allPageTypes = []string{blocks.PageTypePage, blocks.PageTypeHeader, blocks.PageTypeFooter, blocks.PageTypeBlogPost}

func heading(id, text string, level float64) tree.Node {
	return tree.Node{Type: "heading", ID: id, Props: tree.Props{
		{Name: "text", Value: tree.PlainText(text)},
		{Name: "level", Value: tree.Number(level)},
	}}
}

func section(id string, children ...tree.Node) tree.Node {
	return tree.Node{Type: "section", ID: id, Props: tree.Props{
		{Name: "children", Value: tree.Slot(children)},
	}}
}

func rawHomePage() *tree.Page {
	return &tree.Page{
		ID:     "home",
		Type:   blocks.PageTypePage,
		Slug:   "/",
		Locale: "en",
		Meta:   tree.Meta{Title: "Home", Tags: []string{"intro"}},
		Root: []tree.Node{
			heading("h1", "Welcome", 1),
			section("s1",
				heading("", "Nested", 9),
				tree.Node{Type: "marquee", ID: "m1", Props: tree.Props{
					{Name: "items", Value: tree.Slot{heading("h-lost", "lost", 2)}},
				}},
				tree.Node{Type: "text", ID: "t1", Props: tree.Props{
					{Name: "body", Value: tree.PlainText("wrong kind")},
					{Name: "onclick", Value: tree.PlainText("alert(1)")},
				}},
			),
			tree.Node{Type: "button", ID: "b1", Props: tree.Props{
				{Name: "label", Value: tree.PlainText("Go")},
				{Name: "link", Value: tree.LinkTarget{Path: "javascript:alert(1)"}},
			}},
		},
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	reg := blocks.BuiltinRegistry()

	once := sanitize.Clean(rawHomePage(), reg, allPageTypes)
	if once == nil {
		t.Fatalf("expected sanitized page")
	}
	twice, report := sanitize.CleanWithReport(once, reg, allPageTypes)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("expected sanitized tree to be a fixed point (-once +twice):\n%s", diff)
	}
	if report.Changed() {
		t.Fatalf("expected no changes on second pass got %+v", report)
	}
}

func TestCleanDropsUnknownSubtreeAndKeepsSiblingOrder(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		heading("a", "first", 2),
		{Type: "marquee", ID: "x", Props: tree.Props{
			{Name: "children", Value: tree.Slot{heading("inner", "inner", 2)}},
		}},
		heading("b", "second", 2),
		{Type: "", ID: "blank"},
		heading("c", "third", 2),
	}}

	out, report := sanitize.CleanWithReport(page, reg, allPageTypes)

	var ids []string
	tree.Walk(out.Root, func(n tree.Node) bool {
		ids = append(ids, n.ID)
		return true
	})
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("unexpected surviving nodes (-want +got):\n%s", diff)
	}
	if report.DroppedNodes != 3 {
		t.Fatalf("expected 3 dropped nodes got %d", report.DroppedNodes)
	}
}

func TestCleanFillsMissingRequiredPropsFromDefaults(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		{Type: "heading", ID: "h"},
	}}

	out := sanitize.Clean(page, reg, allPageTypes)
	node := out.Root[0]
	defaults := reg.Defaults("heading")

	for _, name := range []string{"text", "level"} {
		got, ok := node.Props.Get(name)
		if !ok {
			t.Fatalf("expected %s to be filled", name)
		}
		want, _ := defaults.Get(name)
		if got != want {
			t.Fatalf("expected %s default %v got %v", name, want, got)
		}
	}
	if _, ok := node.Props.Get("anchor"); ok {
		t.Fatalf("expected optional anchor without default to stay absent")
	}
}

func TestCleanDefaultsInvalidValues(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	out, report := sanitize.CleanWithReport(rawHomePage(), reg, allPageTypes)

	nested := out.Root[1].Children()
	level, _ := nested[0].Props.Get("level")
	if level != tree.Number(2) {
		t.Fatalf("expected out of range level to be defaulted to 2 got %v", level)
	}

	body, _ := nested[1].Props.Get("body")
	if body.Kind() != tree.KindRichText {
		t.Fatalf("expected kind mismatch to be replaced with rich text got %s", body.Kind())
	}
	if _, ok := nested[1].Props.Get("onclick"); ok {
		t.Fatalf("expected undeclared prop to be dropped")
	}

	link, _ := out.Root[2].Props.Get("link")
	if link.(tree.LinkTarget).Path != "/" {
		t.Fatalf("expected unsafe link to be defaulted got %+v", link)
	}
	if report.DefaultedProps != 3 || report.DroppedProps != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCleanDropsOptionalInvalidPropWithoutDefault(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		{Type: "heading", ID: "h", Props: tree.Props{
			{Name: "anchor", Value: tree.PlainText("Not An Anchor!")},
		}},
	}}

	out := sanitize.Clean(page, reg, allPageTypes)
	if _, ok := out.Root[0].Props.Get("anchor"); ok {
		t.Fatalf("expected invalid optional anchor to be dropped")
	}
}

func TestCleanOrdersPropsBySchema(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		{Type: "heading", ID: "h", Props: tree.Props{
			{Name: "level", Value: tree.Number(3)},
			{Name: "text", Value: tree.PlainText("Hi")},
		}},
	}}

	out := sanitize.Clean(page, reg, allPageTypes)
	if diff := cmp.Diff([]string{"text", "level"}, out.Root[0].Props.Names()); diff != "" {
		t.Fatalf("unexpected prop order (-want +got):\n%s", diff)
	}
}

func TestCleanRejectsDisallowedPageType(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := rawHomePage()
	page.Type = "landing"

	if out := sanitize.Clean(page, reg, []string{blocks.PageTypePage}); out != nil {
		t.Fatalf("expected page with disallowed type to be rejected got %+v", out)
	}
	if out := sanitize.Clean(nil, reg, nil); out != nil {
		t.Fatalf("expected nil page to stay nil")
	}
}

func TestCleanFiltersBlocksByPageType(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	nav := tree.Node{Type: "navigation", ID: "nav", Props: tree.Props{
		{Name: "links", Value: tree.Slot{
			{Type: "nav-link", ID: "l1", Props: tree.Props{
				{Name: "label", Value: tree.PlainText("About")},
				{Name: "link", Value: tree.LinkTarget{Path: "/about"}},
			}},
			heading("stray", "not a link", 2),
		}},
	}}

	header := sanitize.Clean(&tree.Page{ID: "hdr", Type: blocks.PageTypeHeader, Root: []tree.Node{nav}}, reg, nil)
	if len(header.Root) != 1 {
		t.Fatalf("expected navigation on header got %d nodes", len(header.Root))
	}
	links := header.Root[0].Children()
	if len(links) != 1 || links[0].ID != "l1" {
		t.Fatalf("expected only nav-link children to survive got %+v", links)
	}

	body := sanitize.Clean(&tree.Page{ID: "pg", Type: blocks.PageTypePage, Root: []tree.Node{nav}}, reg, nil)
	if !body.Empty() {
		t.Fatalf("expected navigation to be dropped from a regular page")
	}
}

func TestCleanAssignsDeterministicIDs(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		{Type: "spacer"},
		{Type: "spacer"},
	}}

	first := sanitize.Clean(page, reg, nil)
	second := sanitize.Clean(page, reg, nil)

	if first.Root[0].ID == "" || first.Root[0].ID == first.Root[1].ID {
		t.Fatalf("expected distinct assigned ids got %q and %q", first.Root[0].ID, first.Root[1].ID)
	}
	if first.Root[0].ID != second.Root[0].ID {
		t.Fatalf("expected assigned ids to be deterministic")
	}
}

func TestCleanAssignsDistinctIDsAcrossSlots(t *testing.T) {
	split := blocks.Schema{Type: "split", Label: "Split", Props: []blocks.PropDescriptor{
		{Name: "left", Kind: tree.KindSlot, Required: true},
		{Name: "right", Kind: tree.KindSlot, Required: true},
	}}
	reg := blocks.MustRegistry(append(blocks.Builtin(), split)...)
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{
		{Type: "split", ID: "sp", Props: tree.Props{
			{Name: "left", Value: tree.Slot{{Type: "spacer"}}},
			{Name: "right", Value: tree.Slot{{Type: "spacer"}}},
		}},
	}}

	cleaned := sanitize.Clean(page, reg, nil)

	slotChild := func(name string) string {
		value, ok := cleaned.Root[0].Props.Get(name)
		if !ok {
			t.Fatalf("expected slot %s to survive", name)
		}
		children, _ := value.(tree.Slot)
		if len(children) != 1 {
			t.Fatalf("expected one child in %s got %d", name, len(children))
		}
		return children[0].ID
	}
	left, right := slotChild("left"), slotChild("right")
	if left == "" || left == right {
		t.Fatalf("expected distinct ids per slot got %q and %q", left, right)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	raw := rawHomePage()
	snapshot := rawHomePage()

	_ = sanitize.Clean(raw, reg, allPageTypes)

	if diff := cmp.Diff(snapshot, raw); diff != "" {
		t.Fatalf("expected input to be untouched (-before +after):\n%s", diff)
	}
}

func TestCleanEmptyAfterPruningIsNotNil(t *testing.T) {
	reg := blocks.BuiltinRegistry()
	page := &tree.Page{ID: "p", Type: blocks.PageTypePage, Root: []tree.Node{{Type: "marquee"}}}

	out := sanitize.Clean(page, reg, allPageTypes)
	if out == nil || !out.Empty() {
		t.Fatalf("expected empty but present page got %+v", out)
	}
}
