package blocks

import (
	"errors"

	"github.com/goliatone/go-delivery/internal/tree"
)

// Page types a content source can declare on a fetched page.
const (
	PageTypePage     = "page"
	PageTypeHeader   = "header"
	PageTypeFooter   = "footer"
	PageTypeBlogPost = "blog-post"
)

var (
	ErrBlockTypeRequired       = errors.New("blocks: block type required")
	ErrDuplicateBlockType      = errors.New("blocks: duplicate block type")
	ErrPropNameRequired        = errors.New("blocks: prop name required")
	ErrDuplicateProp           = errors.New("blocks: duplicate prop name")
	ErrPropKindInvalid         = errors.New("blocks: prop kind invalid")
	ErrAllowedChildrenNotSlot  = errors.New("blocks: allowed children declared on a non-slot prop")
	ErrUnknownChildType        = errors.New("blocks: allowed child type is not registered")
	ErrConstraintInvalid       = errors.New("blocks: prop constraint invalid")
	ErrDefaultUndeclared       = errors.New("blocks: default provided for undeclared prop")
	ErrDefaultKindMismatch     = errors.New("blocks: default kind does not match prop kind")
	ErrDefaultConstraintFailed = errors.New("blocks: default does not satisfy prop constraint")
)

// PropDescriptor declares one prop a block may carry.
type PropDescriptor struct {
	Name     string
	Kind     tree.Kind
	Required bool
	// AllowedChildren restricts the block types a slot prop may hold. Empty
	// means any registered type.
	AllowedChildren []string
	// Constraint is an optional JSON schema checked against the JSON form
	// of the value. Not supported on slot props.
	Constraint map[string]any
}

// Schema is the declared shape of one block type.
type Schema struct {
	Type     string
	Label    string
	Category string
	Props    []PropDescriptor
	// Defaults builds the default props. It is called each time defaults are
	// needed and must be deterministic.
	Defaults        func() tree.Props
	HideFromAddMenu bool
	// PageTypes restricts the block to pages of these types. Empty means the
	// block is allowed on every page type.
	PageTypes []string
}

// Prop returns the descriptor declared under name.
func (s Schema) Prop(name string) (PropDescriptor, bool) {
	for _, prop := range s.Props {
		if prop.Name == name {
			return prop, true
		}
	}
	return PropDescriptor{}, false
}

// MenuEntry is one item of the editor add-menu.
type MenuEntry struct {
	Type     string `json:"type"`
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Category string `json:"category"`
}
