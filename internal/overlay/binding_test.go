package overlay_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/overlay"
	"github.com/goliatone/go-delivery/internal/render"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/google/go-cmp/cmp"
)

func previewPlan() *assembler.RenderPlan {
	return &assembler.RenderPlan{
		ID:     "plan",
		Locale: "fr",
		Slug:   "about",
		Main:   &tree.Page{ID: "about-fr", Type: "page", Slug: "about", Locale: "fr"},
	}
}

func TestBindUsesMainPage(t *testing.T) {
	plan := previewPlan()
	snapshot := previewPlan()

	binding, ok := overlay.Bind(plan)
	if !ok {
		t.Fatalf("expected binding for plan with main content")
	}
	if binding != (overlay.Binding{PageID: "about-fr", Locale: "fr", Model: "page"}) {
		t.Fatalf("unexpected binding %+v", binding)
	}
	if diff := cmp.Diff(snapshot, plan); diff != "" {
		t.Fatalf("expected plan untouched (-before +after):\n%s", diff)
	}
}

func TestBindWithoutMain(t *testing.T) {
	if _, ok := overlay.Bind(&assembler.RenderPlan{Header: &tree.Page{ID: "h"}}); ok {
		t.Fatalf("expected no binding without main content")
	}
	if _, ok := overlay.Bind(&assembler.RenderPlan{Main: &tree.Page{ID: " "}}); ok {
		t.Fatalf("expected no binding for a page without id")
	}
	if _, ok := overlay.Bind(nil); ok {
		t.Fatalf("expected no binding for nil plan")
	}
}

func TestBindFallsBackToPlanLocale(t *testing.T) {
	plan := previewPlan()
	plan.Main.Locale = ""
	binding, _ := overlay.Bind(plan)
	if binding.Locale != "fr" {
		t.Fatalf("expected plan locale got %q", binding.Locale)
	}
}

func TestJSONBinderAttachesEditLink(t *testing.T) {
	binder, err := overlay.NewJSONBinder("https://editor.example.com/")
	if err != nil {
		t.Fatalf("new binder: %v", err)
	}
	view := render.Compose(previewPlan())
	binding, _ := overlay.Bind(previewPlan())

	if err := binder.Attach(&view, binding); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if view.Edit == nil || view.Edit.PageID != "about-fr" || view.Edit.Locale != "fr" {
		t.Fatalf("unexpected edit attribute %+v", view.Edit)
	}
	if !strings.Contains(view.Edit.URL, "/pages/about-fr/edit") || !strings.Contains(view.Edit.URL, "locale=fr") {
		t.Fatalf("unexpected editor url %q", view.Edit.URL)
	}
}

func TestJSONBinderWithoutEditorURL(t *testing.T) {
	binder, err := overlay.NewJSONBinder("")
	if err != nil {
		t.Fatalf("new binder: %v", err)
	}
	view := render.View{}
	if err := binder.Attach(&view, overlay.Binding{PageID: "p", Locale: "en"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if view.Edit == nil || view.Edit.URL != "" {
		t.Fatalf("expected edit attribute without link got %+v", view.Edit)
	}
}
