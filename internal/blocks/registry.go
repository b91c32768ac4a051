package blocks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/goliatone/go-delivery/internal/validation"
	"github.com/goliatone/go-slug"
)

// Registry maps block type names to their schemas. It is built once and is
// read-only afterwards, so lookups need no locking.
type Registry struct {
	entries map[string]*entry
	order   []string
}

type entry struct {
	schema      Schema
	slug        string
	constraints map[string]*validation.Constraint
	children    map[string]map[string]struct{}
	pageTypes   map[string]struct{}
}

// NewRegistry validates and indexes the provided schemas. Any inconsistency
// is a programming error and fails the whole build.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	reg := &Registry{
		entries: make(map[string]*entry, len(schemas)),
		order:   make([]string, 0, len(schemas)),
	}
	for _, schema := range schemas {
		name := strings.TrimSpace(schema.Type)
		if name == "" {
			return nil, ErrBlockTypeRequired
		}
		if _, exists := reg.entries[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBlockType, name)
		}
		schema.Type = name
		compiled, err := compileEntry(schema)
		if err != nil {
			return nil, err
		}
		reg.entries[name] = compiled
		reg.order = append(reg.order, name)
	}
	for _, name := range reg.order {
		for prop, allowed := range reg.entries[name].children {
			for child := range allowed {
				if _, ok := reg.entries[child]; !ok {
					return nil, fmt.Errorf("%w: %s.%s -> %s", ErrUnknownChildType, name, prop, child)
				}
			}
		}
	}
	return reg, nil
}

// MustRegistry is NewRegistry for process start, panicking on error.
func MustRegistry(schemas ...Schema) *Registry {
	reg, err := NewRegistry(schemas...)
	if err != nil {
		panic(err)
	}
	return reg
}

func compileEntry(schema Schema) (*entry, error) {
	schema.Props = append([]PropDescriptor(nil), schema.Props...)
	e := &entry{
		slug:        registrySlug(schema),
		constraints: map[string]*validation.Constraint{},
		children:    map[string]map[string]struct{}{},
		pageTypes:   toSet(schema.PageTypes),
	}
	seen := map[string]struct{}{}
	for i, prop := range schema.Props {
		name := strings.TrimSpace(prop.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: %s[%d]", ErrPropNameRequired, schema.Type, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateProp, schema.Type, name)
		}
		seen[name] = struct{}{}
		if prop.Kind == tree.KindUnknown || prop.Kind > tree.KindSlot {
			return nil, fmt.Errorf("%w: %s.%s", ErrPropKindInvalid, schema.Type, name)
		}
		if len(prop.AllowedChildren) > 0 {
			if prop.Kind != tree.KindSlot {
				return nil, fmt.Errorf("%w: %s.%s", ErrAllowedChildrenNotSlot, schema.Type, name)
			}
			e.children[name] = toSet(prop.AllowedChildren)
		}
		if len(prop.Constraint) > 0 {
			if prop.Kind == tree.KindSlot {
				return nil, fmt.Errorf("%w: %s.%s: slot props cannot carry constraints", ErrConstraintInvalid, schema.Type, name)
			}
			constraint, err := validation.Compile(prop.Constraint)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrConstraintInvalid, schema.Type, name, err)
			}
			e.constraints[name] = constraint
		}
		schema.Props[i].Name = name
	}
	e.schema = schema
	if schema.Defaults != nil {
		for _, def := range schema.Defaults() {
			desc, ok := schema.Prop(def.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s", ErrDefaultUndeclared, schema.Type, def.Name)
			}
			if def.Value == nil || def.Value.Kind() != desc.Kind || !def.Value.Valid() {
				return nil, fmt.Errorf("%w: %s.%s", ErrDefaultKindMismatch, schema.Type, def.Name)
			}
			if err := e.constraints[def.Name].CheckJSON(def.Value); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrDefaultConstraintFailed, schema.Type, def.Name, err)
			}
		}
	}
	return e, nil
}

// Lookup returns the schema registered under typeName.
func (r *Registry) Lookup(typeName string) (Schema, bool) {
	e := r.entry(typeName)
	if e == nil {
		return Schema{}, false
	}
	return e.schema, true
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Types lists registered type names in registration order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// IsAllowedForPageType reports whether typeName may appear on a page of
// pageType. Unknown types are never allowed.
func (r *Registry) IsAllowedForPageType(typeName, pageType string) bool {
	e := r.entry(typeName)
	if e == nil {
		return false
	}
	if len(e.pageTypes) == 0 {
		return true
	}
	_, ok := e.pageTypes[strings.TrimSpace(pageType)]
	return ok
}

// IsAllowedChild reports whether childType may be placed in the slot prop of
// parentType.
func (r *Registry) IsAllowedChild(parentType, prop, childType string) bool {
	e := r.entry(parentType)
	if e == nil {
		return false
	}
	allowed, restricted := e.children[prop]
	if !restricted {
		return true
	}
	_, ok := allowed[strings.TrimSpace(childType)]
	return ok
}

// Satisfies reports whether value passes the constraint declared for prop.
func (r *Registry) Satisfies(typeName, prop string, value tree.Value) bool {
	e := r.entry(typeName)
	if e == nil {
		return false
	}
	constraint := e.constraints[prop]
	if constraint == nil {
		return true
	}
	return constraint.CheckJSON(value) == nil
}

// Defaults evaluates the default props of typeName.
func (r *Registry) Defaults(typeName string) tree.Props {
	e := r.entry(typeName)
	if e == nil || e.schema.Defaults == nil {
		return nil
	}
	return e.schema.Defaults()
}

// DefaultFor resolves the default value of one prop from defaults. Required
// props without an explicit default fall back to the zero value of their
// kind; optional props without one report false.
func DefaultFor(desc PropDescriptor, defaults tree.Props) (tree.Value, bool) {
	if value, ok := defaults.Get(desc.Name); ok && value != nil {
		return value, true
	}
	if desc.Required {
		return tree.Zero(desc.Kind), true
	}
	return nil, false
}

// AddMenu lists the schemas offered in editor add-menus, sorted by category
// then label.
func (r *Registry) AddMenu() []MenuEntry {
	if r == nil {
		return nil
	}
	out := make([]MenuEntry, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		if e.schema.HideFromAddMenu {
			continue
		}
		label := e.schema.Label
		if label == "" {
			label = name
		}
		out = append(out, MenuEntry{
			Type:     name,
			Slug:     e.slug,
			Label:    label,
			Category: e.schema.Category,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func (r *Registry) entry(typeName string) *entry {
	if r == nil {
		return nil
	}
	return r.entries[strings.TrimSpace(typeName)]
}

func registrySlug(schema Schema) string {
	candidate := strings.TrimSpace(schema.Label)
	if candidate == "" {
		candidate = strings.TrimSpace(schema.Type)
	}
	normalizer := slug.Default()
	normalized, err := normalizer.Normalize(candidate)
	if err != nil || normalized == "" {
		return schema.Type
	}
	return normalized
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}
