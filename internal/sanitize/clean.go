// Package sanitize validates untrusted content trees against the block
// registry and prunes whatever cannot be trusted for rendering.
package sanitize

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-delivery/internal/blocks"
	"github.com/goliatone/go-delivery/internal/identity"
	"github.com/goliatone/go-delivery/internal/tree"
)

// Report counts what a Clean pass changed.
type Report struct {
	DroppedNodes   int `json:"droppedNodes"`
	DroppedProps   int `json:"droppedProps"`
	DefaultedProps int `json:"defaultedProps"`
	FilledProps    int `json:"filledProps"`
	AssignedIDs    int `json:"assignedIds"`
}

// Changed reports whether the pass altered anything.
func (r Report) Changed() bool {
	return r != Report{}
}

// Clean returns a sanitized copy of page. It returns nil when page is nil or
// its type is not in allowedPageTypes; an empty allowedPageTypes accepts any
// page type. A non-nil result may still be Empty when every node was dropped.
func Clean(page *tree.Page, reg *blocks.Registry, allowedPageTypes []string) *tree.Page {
	out, _ := CleanWithReport(page, reg, allowedPageTypes)
	return out
}

// CleanWithReport is Clean plus counts of the changes made.
func CleanWithReport(page *tree.Page, reg *blocks.Registry, allowedPageTypes []string) (*tree.Page, Report) {
	var report Report
	if page == nil || !pageTypeAllowed(page.Type, allowedPageTypes) {
		if page != nil {
			report.DroppedNodes = page.Count()
		}
		return nil, report
	}
	c := &cleaner{
		reg:      reg,
		pageID:   page.ID,
		pageType: strings.TrimSpace(page.Type),
		report:   &report,
	}
	out := &tree.Page{
		ID:     page.ID,
		Type:   page.Type,
		Slug:   page.Slug,
		Locale: page.Locale,
		Meta:   page.Meta.Clone(),
		Root:   c.nodes(page.Root, "", "", nil),
	}
	return out, report
}

func pageTypeAllowed(pageType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	pageType = strings.TrimSpace(pageType)
	for _, candidate := range allowed {
		if strings.TrimSpace(candidate) == pageType {
			return true
		}
	}
	return false
}

type cleaner struct {
	reg      *blocks.Registry
	pageID   string
	pageType string
	report   *Report
}

// nodes cleans one ordered sequence. parent and slot are empty for the page
// root.
func (c *cleaner) nodes(in []tree.Node, parent, slot string, path []string) []tree.Node {
	out := make([]tree.Node, 0, len(in))
	for i, node := range in {
		if parent != "" && !c.reg.IsAllowedChild(parent, slot, node.Type) {
			c.drop(node)
			continue
		}
		cleaned, ok := c.node(node, childPath(path, slot, i))
		if !ok {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

func (c *cleaner) node(in tree.Node, path []string) (tree.Node, bool) {
	typeName := strings.TrimSpace(in.Type)
	schema, ok := c.reg.Lookup(typeName)
	if !ok || !c.reg.IsAllowedForPageType(typeName, c.pageType) {
		c.drop(in)
		return tree.Node{}, false
	}

	for _, prop := range in.Props {
		if _, declared := schema.Prop(prop.Name); !declared {
			c.report.DroppedProps++
		}
	}

	defaults := c.reg.Defaults(typeName)
	props := make(tree.Props, 0, len(schema.Props))
	for _, desc := range schema.Props {
		value, present := in.Props.Get(desc.Name)
		switch {
		case !present:
			def, ok := blocks.DefaultFor(desc, defaults)
			if !ok {
				continue
			}
			c.report.FilledProps++
			value = def
		case !c.acceptable(typeName, desc, value):
			def, ok := blocks.DefaultFor(desc, defaults)
			if !ok {
				c.report.DroppedProps++
				continue
			}
			c.report.DefaultedProps++
			value = def
		}
		if desc.Kind == tree.KindSlot {
			children, _ := value.(tree.Slot)
			value = tree.Slot(c.nodes(children, typeName, desc.Name, path))
		}
		props = append(props, tree.Prop{Name: desc.Name, Value: value})
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = identity.BlockNodeID(c.pageID, typeName, path)
		c.report.AssignedIDs++
	}
	return tree.Node{Type: typeName, ID: id, Props: props}, true
}

func (c *cleaner) acceptable(typeName string, desc blocks.PropDescriptor, value tree.Value) bool {
	if value == nil || value.Kind() != desc.Kind || !value.Valid() {
		return false
	}
	return c.reg.Satisfies(typeName, desc.Name, value)
}

// drop records a node and its whole subtree as removed.
func (c *cleaner) drop(node tree.Node) {
	tree.Walk([]tree.Node{node}, func(tree.Node) bool {
		c.report.DroppedNodes++
		return true
	})
}

// childPath appends one position. Nested positions carry the slot name so
// siblings in different slots of one parent stay distinct.
func childPath(path []string, slot string, index int) []string {
	step := strconv.Itoa(index)
	if slot != "" {
		step = slot + ":" + step
	}
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = step
	return out
}
