package blocks

import "github.com/goliatone/go-delivery/internal/tree"

// Block categories used by the add-menu.
const (
	CategoryLayout    = "layout"
	CategoryContent   = "content"
	CategoryMarketing = "marketing"
	CategoryStructure = "structure"
	CategoryBlog      = "blog"
)

func paragraph(text string) tree.RichText {
	return tree.RichText{Blocks: []tree.TextBlock{{
		Style: tree.StyleParagraph,
		Spans: []tree.Span{{Text: text}},
	}}}
}

func defaults(props ...tree.Prop) func() tree.Props {
	return func() tree.Props {
		out := make(tree.Props, len(props))
		copy(out, props)
		return out
	}
}

var (
	levelConstraint   = map[string]any{"type": "integer", "minimum": 1, "maximum": 6}
	spacingConstraint = map[string]any{"type": "number", "minimum": 0, "maximum": 512}
)

// Builtin returns the block catalogue registered at process start.
func Builtin() []Schema {
	return []Schema{
		{
			Type:     "section",
			Label:    "Section",
			Category: CategoryLayout,
			Props: []PropDescriptor{
				{Name: "title", Kind: tree.KindPlainText},
				{Name: "background", Kind: tree.KindImageRef},
				{Name: "padded", Kind: tree.KindBoolean, Required: true},
				{Name: "children", Kind: tree.KindSlot, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "padded", Value: tree.Boolean(true)}),
		},
		{
			Type:     "columns",
			Label:    "Columns",
			Category: CategoryLayout,
			Props: []PropDescriptor{
				{Name: "gap", Kind: tree.KindNumber, Required: true, Constraint: map[string]any{"type": "number", "minimum": 0, "maximum": 128}},
				{Name: "columns", Kind: tree.KindSlot, Required: true, AllowedChildren: []string{"column"}},
			},
			Defaults: defaults(tree.Prop{Name: "gap", Value: tree.Number(24)}),
		},
		{
			Type:            "column",
			Label:           "Column",
			Category:        CategoryLayout,
			HideFromAddMenu: true,
			Props: []PropDescriptor{
				{Name: "width", Kind: tree.KindNumber, Required: true, Constraint: map[string]any{"type": "integer", "minimum": 1, "maximum": 12}},
				{Name: "children", Kind: tree.KindSlot, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "width", Value: tree.Number(6)}),
		},
		{
			Type:     "heading",
			Label:    "Heading",
			Category: CategoryContent,
			Props: []PropDescriptor{
				{Name: "text", Kind: tree.KindPlainText, Required: true},
				{Name: "level", Kind: tree.KindNumber, Required: true, Constraint: levelConstraint},
				{Name: "anchor", Kind: tree.KindPlainText, Constraint: map[string]any{"type": "string", "pattern": "^[a-z0-9-]*$"}},
			},
			Defaults: defaults(
				tree.Prop{Name: "text", Value: tree.PlainText("Heading")},
				tree.Prop{Name: "level", Value: tree.Number(2)},
			),
		},
		{
			Type:     "text",
			Label:    "Text",
			Category: CategoryContent,
			Props: []PropDescriptor{
				{Name: "body", Kind: tree.KindRichText, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "body", Value: tree.RichText{}}),
		},
		{
			Type:     "image",
			Label:    "Image",
			Category: CategoryContent,
			Props: []PropDescriptor{
				{Name: "image", Kind: tree.KindImageRef, Required: true},
				{Name: "caption", Kind: tree.KindPlainText},
				{Name: "link", Kind: tree.KindLinkTarget},
				{Name: "lazy", Kind: tree.KindBoolean, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "lazy", Value: tree.Boolean(true)}),
		},
		{
			Type:     "button",
			Label:    "Button",
			Category: CategoryContent,
			Props: []PropDescriptor{
				{Name: "label", Kind: tree.KindPlainText, Required: true},
				{Name: "link", Kind: tree.KindLinkTarget, Required: true},
				{Name: "variant", Kind: tree.KindPlainText, Required: true, Constraint: map[string]any{"enum": []any{"primary", "secondary", "ghost"}}},
			},
			Defaults: defaults(
				tree.Prop{Name: "label", Value: tree.PlainText("Learn more")},
				tree.Prop{Name: "link", Value: tree.LinkTarget{Path: "/", Target: tree.TargetSelf}},
				tree.Prop{Name: "variant", Value: tree.PlainText("primary")},
			),
		},
		{
			Type:     "hero",
			Label:    "Hero",
			Category: CategoryMarketing,
			Props: []PropDescriptor{
				{Name: "title", Kind: tree.KindPlainText, Required: true},
				{Name: "subtitle", Kind: tree.KindRichText},
				{Name: "image", Kind: tree.KindImageRef},
				{Name: "actions", Kind: tree.KindSlot, Required: true, AllowedChildren: []string{"button"}},
			},
			Defaults: defaults(tree.Prop{Name: "title", Value: tree.PlainText("")}),
		},
		{
			Type:     "testimonial",
			Label:    "Testimonial",
			Category: CategoryMarketing,
			Props: []PropDescriptor{
				{Name: "quote", Kind: tree.KindRichText, Required: true},
				{Name: "author", Kind: tree.KindPlainText, Required: true},
				{Name: "avatar", Kind: tree.KindImageRef},
				{Name: "rating", Kind: tree.KindNumber, Constraint: map[string]any{"type": "number", "minimum": 0, "maximum": 5}},
			},
			Defaults: defaults(
				tree.Prop{Name: "quote", Value: paragraph("")},
				tree.Prop{Name: "author", Value: tree.PlainText("Anonymous")},
			),
		},
		{
			Type:     "spacer",
			Label:    "Spacer",
			Category: CategoryLayout,
			Props: []PropDescriptor{
				{Name: "height", Kind: tree.KindNumber, Required: true, Constraint: spacingConstraint},
			},
			Defaults: defaults(tree.Prop{Name: "height", Value: tree.Number(32)}),
		},
		{
			Type:      "navigation",
			Label:     "Navigation",
			Category:  CategoryStructure,
			PageTypes: []string{PageTypeHeader, PageTypeFooter},
			Props: []PropDescriptor{
				{Name: "logo", Kind: tree.KindImageRef},
				{Name: "sticky", Kind: tree.KindBoolean, Required: true},
				{Name: "links", Kind: tree.KindSlot, Required: true, AllowedChildren: []string{"nav-link"}},
			},
			Defaults: defaults(tree.Prop{Name: "sticky", Value: tree.Boolean(false)}),
		},
		{
			Type:      "nav-link",
			Label:     "Navigation link",
			Category:  CategoryStructure,
			PageTypes: []string{PageTypeHeader, PageTypeFooter},
			Props: []PropDescriptor{
				{Name: "label", Kind: tree.KindPlainText, Required: true},
				{Name: "link", Kind: tree.KindLinkTarget, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "link", Value: tree.LinkTarget{Path: "/"}}),
		},
		{
			Type:      "footer-column",
			Label:     "Footer column",
			Category:  CategoryStructure,
			PageTypes: []string{PageTypeFooter},
			Props: []PropDescriptor{
				{Name: "title", Kind: tree.KindPlainText},
				{Name: "links", Kind: tree.KindSlot, Required: true, AllowedChildren: []string{"nav-link"}},
			},
		},
		{
			Type:      "copyright",
			Label:     "Copyright",
			Category:  CategoryStructure,
			PageTypes: []string{PageTypeFooter},
			Props: []PropDescriptor{
				{Name: "text", Kind: tree.KindPlainText, Required: true},
			},
			Defaults: defaults(tree.Prop{Name: "text", Value: tree.PlainText("All rights reserved")}),
		},
		{
			Type:      "post-body",
			Label:     "Post body",
			Category:  CategoryBlog,
			PageTypes: []string{PageTypeBlogPost},
			Props: []PropDescriptor{
				{Name: "body", Kind: tree.KindRichText, Required: true},
				{Name: "cover", Kind: tree.KindImageRef},
			},
		},
		{
			Type:      "author",
			Label:     "Author",
			Category:  CategoryBlog,
			PageTypes: []string{PageTypeBlogPost},
			Props: []PropDescriptor{
				{Name: "name", Kind: tree.KindPlainText, Required: true},
				{Name: "avatar", Kind: tree.KindImageRef},
				{Name: "bio", Kind: tree.KindRichText},
			},
		},
	}
}

// BuiltinRegistry builds the registry over Builtin.
func BuiltinRegistry() *Registry {
	return MustRegistry(Builtin()...)
}
