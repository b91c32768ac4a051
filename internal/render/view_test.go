package render_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/render"
	"github.com/goliatone/go-delivery/internal/tree"
)

func page(id string) *tree.Page {
	return &tree.Page{ID: id, Root: []tree.Node{{Type: "spacer", ID: id + "-s"}}, Meta: tree.Meta{Title: id}}
}

func TestComposeFullPlan(t *testing.T) {
	plan := &assembler.RenderPlan{ID: "p", Locale: "en", Slug: "about", Header: page("h"), Main: page("m"), Footer: page("f")}

	view := render.Compose(plan)
	if view.Status != http.StatusOK {
		t.Fatalf("expected 200 got %d", view.Status)
	}
	if len(view.Sections) != 3 {
		t.Fatalf("expected 3 sections got %d", len(view.Sections))
	}
	for i, part := range []assembler.Part{assembler.PartHeader, assembler.PartMain, assembler.PartFooter} {
		section := view.Sections[i]
		if section.Part != part || section.Notice != nil || len(section.Blocks) != 1 {
			t.Fatalf("unexpected section %d: %+v", i, section)
		}
	}
	if view.Meta == nil || view.Meta.Title != "m" {
		t.Fatalf("expected main meta on view got %+v", view.Meta)
	}
}

func TestComposeStructuralFallback(t *testing.T) {
	plan := &assembler.RenderPlan{
		Main:   page("m"),
		Header: page("h"),
		Errors: []assembler.PlanError{{Kind: assembler.SourceUnavailable, Part: assembler.PartFooter}},
	}

	view := render.Compose(plan)
	if view.Status != http.StatusOK {
		t.Fatalf("expected footer failure to keep 200 got %d", view.Status)
	}
	footer, _ := view.Section(assembler.PartFooter)
	if footer.Notice == nil || footer.Notice.Kind != render.NoticeStructuralFallback || footer.Notice.Reason != assembler.SourceUnavailable {
		t.Fatalf("expected structural fallback notice got %+v", footer)
	}
	body, _ := view.Section(assembler.PartMain)
	if body.Notice != nil {
		t.Fatalf("expected main to render got notice %+v", body.Notice)
	}
}

func TestComposeMissingMainIsNotFound(t *testing.T) {
	plan := &assembler.RenderPlan{
		Header: page("h"),
		Footer: page("f"),
		Errors: []assembler.PlanError{{Kind: assembler.SourceUnavailable, Part: assembler.PartMain}},
	}

	view := render.Compose(plan)
	if view.Status != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", view.Status)
	}
	body, _ := view.Section(assembler.PartMain)
	if body.Notice == nil || body.Notice.Kind != render.NoticeNotFound {
		t.Fatalf("expected not found notice got %+v", body)
	}
	header, _ := view.Section(assembler.PartHeader)
	if header.Notice != nil {
		t.Fatalf("expected header to keep rendering")
	}
}

func TestComposeMissingCredentialsReplacesPage(t *testing.T) {
	plan := &assembler.RenderPlan{Errors: []assembler.PlanError{{Kind: assembler.MissingCredentials}}}

	view := render.Compose(plan)
	if view.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", view.Status)
	}
	if len(view.Sections) != 1 || view.Sections[0].Notice.Kind != render.NoticeConfiguration {
		t.Fatalf("expected a single configuration notice got %+v", view.Sections)
	}
}

func TestComposeListing(t *testing.T) {
	plan := &assembler.ListingPlan{
		Locale: "en",
		Tag:    "news",
		Errors: []assembler.PlanError{{Kind: assembler.SourceUnavailable, Part: assembler.PartTags}},
	}
	view := render.ComposeListing(plan)
	if view.Status != http.StatusOK || len(view.Notices) != 1 || view.Notices[0].Kind != render.NoticeListingUnavailable {
		t.Fatalf("unexpected listing view %+v", view)
	}
	if view.Items == nil || view.Tags == nil {
		t.Fatalf("expected empty slices for JSON output")
	}

	missing := render.ComposeListing(&assembler.ListingPlan{Errors: []assembler.PlanError{{Kind: assembler.MissingCredentials}}})
	if missing.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", missing.Status)
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := render.JSONRenderer{}
	if renderer.ContentType() != "application/json" {
		t.Fatalf("unexpected content type %s", renderer.ContentType())
	}
	view := render.Compose(&assembler.RenderPlan{Locale: "en", Slug: "/"})
	if err := renderer.Render(&buf, view); err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode rendered view: %v", err)
	}
	if decoded["status"] != float64(http.StatusNotFound) {
		t.Fatalf("expected status 404 in payload got %v", decoded["status"])
	}
	if !strings.Contains(buf.String(), `"kind":"structural_fallback"`) {
		t.Fatalf("expected fallback notices in %s", buf.String())
	}
}
