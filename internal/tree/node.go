package tree

import (
	"bytes"
	"encoding/json"
	"time"
)

// Node is a typed block in a content tree. A node exclusively owns the
// children held in its slot props.
type Node struct {
	Type  string
	ID    string
	Props Props
}

// Prop is a named value on a node.
type Prop struct {
	Name  string
	Value Value
}

// Props is an ordered prop mapping.
type Props []Prop

// Get returns the value stored under name.
func (p Props) Get(name string) (Value, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return nil, false
}

// Names lists prop names in order.
func (p Props) Names() []string {
	out := make([]string, 0, len(p))
	for _, prop := range p {
		out = append(out, prop.Name)
	}
	return out
}

// Set returns a copy of p with name bound to value, replacing an existing
// entry in place or appending a new one.
func (p Props) Set(name string, value Value) Props {
	out := make(Props, 0, len(p)+1)
	replaced := false
	for _, prop := range p {
		if prop.Name == name {
			out = append(out, Prop{Name: name, Value: value})
			replaced = true
			continue
		}
		out = append(out, prop)
	}
	if !replaced {
		out = append(out, Prop{Name: name, Value: value})
	}
	return out
}

// MarshalJSON writes props as a JSON object preserving their order.
func (p Props) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var value []byte
		if prop.Value == nil {
			value = []byte("null")
		} else if value, err = json.Marshal(prop.Value); err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	props := n.Props
	if props == nil {
		props = Props{}
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		ID    string `json:"id,omitempty"`
		Props Props  `json:"props"`
	}{Type: n.Type, ID: n.ID, Props: props})
}

// Children returns the nodes held in the node's slot props, in prop order.
func (n Node) Children() []Node {
	var out []Node
	for _, prop := range n.Props {
		if slot, ok := prop.Value.(Slot); ok {
			out = append(out, slot...)
		}
	}
	return out
}

// Walk visits nodes depth-first in pre-order. Returning false from fn skips
// the node's descendants.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, node := range nodes {
		if !fn(node) {
			continue
		}
		Walk(node.Children(), fn)
	}
}

// Meta carries page level metadata that is not part of the block tree.
type Meta struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       *ImageRef `json:"image,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Clone returns a copy that shares no slice or pointer with m.
func (m Meta) Clone() Meta {
	out := m
	if m.Image != nil {
		image := *m.Image
		out.Image = &image
	}
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

// Page is a fetched content document: one locale specific slug and the
// root sequence of its block tree.
type Page struct {
	ID     string
	Type   string
	Slug   string
	Locale string
	Root   []Node
	Meta   Meta
}

// Empty reports whether the page carries no renderable nodes.
func (p *Page) Empty() bool {
	return p == nil || len(p.Root) == 0
}

// Count returns the number of nodes in the page tree.
func (p *Page) Count() int {
	if p == nil {
		return 0
	}
	total := 0
	Walk(p.Root, func(Node) bool {
		total++
		return true
	})
	return total
}

func (p Page) MarshalJSON() ([]byte, error) {
	root := p.Root
	if root == nil {
		root = []Node{}
	}
	var published *string
	if !p.Meta.PublishedAt.IsZero() {
		formatted := p.Meta.PublishedAt.UTC().Format(time.RFC3339)
		published = &formatted
	}
	return json.Marshal(struct {
		ID          string    `json:"id"`
		Type        string    `json:"type"`
		Slug        string    `json:"slug"`
		Locale      string    `json:"locale,omitempty"`
		Title       string    `json:"title,omitempty"`
		Description string    `json:"description,omitempty"`
		Image       *ImageRef `json:"image,omitempty"`
		Tags        []string  `json:"tags,omitempty"`
		PublishedAt *string   `json:"publishedAt,omitempty"`
		Blocks      []Node    `json:"blocks"`
	}{
		ID:          p.ID,
		Type:        p.Type,
		Slug:        p.Slug,
		Locale:      p.Locale,
		Title:       p.Meta.Title,
		Description: p.Meta.Description,
		Image:       p.Meta.Image,
		Tags:        p.Meta.Tags,
		PublishedAt: published,
		Blocks:      root,
	})
}
