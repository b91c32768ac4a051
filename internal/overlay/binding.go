// Package overlay attaches the editing affordance to a previewed page. It
// reads assembled plans and never changes them.
package overlay

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/render"
	urlkit "github.com/goliatone/go-urlkit"
)

// Binding identifies the page an editor would open.
type Binding struct {
	PageID string `json:"pageId"`
	Locale string `json:"locale"`
	Model  string `json:"model"`
}

// Bind returns the binding for the plan's main content. It reports false
// when the plan has no main page or the page carries no id.
func Bind(plan *assembler.RenderPlan) (Binding, bool) {
	if plan == nil || plan.Main == nil {
		return Binding{}, false
	}
	id := strings.TrimSpace(plan.Main.ID)
	if id == "" {
		return Binding{}, false
	}
	locale := plan.Main.Locale
	if locale == "" {
		locale = plan.Locale
	}
	return Binding{PageID: id, Locale: locale, Model: plan.Main.Type}, true
}

// Binder decorates a composed view with an editing affordance.
type Binder interface {
	Attach(view *render.View, binding Binding) error
}

const (
	editorGroup = "editor"
	editorRoute = "edit"
	// DefaultEditorPath is the route template for the editor deep link.
	DefaultEditorPath = "/pages/:id/edit"
)

// JSONBinder sets View.Edit, optionally with a deep link into the editor.
type JSONBinder struct {
	group *urlkit.Group
}

var _ Binder = (*JSONBinder)(nil)

// NewJSONBinder builds a binder. An empty editorURL attaches the binding
// without a link.
func NewJSONBinder(editorURL string) (*JSONBinder, error) {
	base := strings.TrimRight(strings.TrimSpace(editorURL), "/")
	if base == "" {
		return &JSONBinder{}, nil
	}
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{{
			Name:    editorGroup,
			BaseURL: base,
			Paths:   map[string]string{editorRoute: DefaultEditorPath},
		}},
	})
	group, err := lookupGroup(manager)
	if err != nil {
		return nil, err
	}
	return &JSONBinder{group: group}, nil
}

// Attach sets the edit attribute on view.
func (b *JSONBinder) Attach(view *render.View, binding Binding) error {
	if view == nil {
		return nil
	}
	edit := &render.Edit{PageID: binding.PageID, Locale: binding.Locale, Model: binding.Model}
	if b != nil && b.group != nil {
		builder := b.group.Builder(editorRoute)
		builder.WithParam("id", binding.PageID)
		builder.WithQuery("locale", binding.Locale)
		link, err := builder.Build()
		if err != nil {
			return fmt.Errorf("overlay: build editor url: %w", err)
		}
		edit.URL = link
	}
	view.Edit = edit
	return nil
}

func lookupGroup(manager *urlkit.RouteManager) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("overlay: route group %q not found", editorGroup)
		}
	}()
	group = manager.Group(editorGroup)
	return group, err
}
