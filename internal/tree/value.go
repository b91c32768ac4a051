package tree

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Kind identifies the shape of a prop value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPlainText
	KindRichText
	KindImageRef
	KindBoolean
	KindNumber
	KindLinkTarget
	KindSlot
)

// String renders the kind label used in schemas and logs.
func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain_text"
	case KindRichText:
		return "rich_text"
	case KindImageRef:
		return "image"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindLinkTarget:
		return "link"
	case KindSlot:
		return "slot"
	default:
		return "unknown"
	}
}

// ParseKind maps a kind label back to its Kind.
func ParseKind(label string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "plain_text", "text", "string":
		return KindPlainText, true
	case "rich_text", "richtext":
		return KindRichText, true
	case "image", "image_ref", "imageref":
		return KindImageRef, true
	case "boolean", "bool":
		return KindBoolean, true
	case "number":
		return KindNumber, true
	case "link", "link_target", "linktarget":
		return KindLinkTarget, true
	case "slot", "nested_slot", "nestedslot":
		return KindSlot, true
	default:
		return KindUnknown, false
	}
}

// Value is a prop value. The set of implementations is closed to this package.
type Value interface {
	Kind() Kind
	// Valid reports whether the value is safe to hand to a renderer once its
	// kind matches the declaring descriptor.
	Valid() bool
	isValue()
}

// Zero returns the empty value of a kind.
func Zero(kind Kind) Value {
	switch kind {
	case KindPlainText:
		return PlainText("")
	case KindRichText:
		return RichText{}
	case KindImageRef:
		return ImageRef{}
	case KindBoolean:
		return Boolean(false)
	case KindNumber:
		return Number(0)
	case KindLinkTarget:
		return LinkTarget{}
	case KindSlot:
		return Slot{}
	default:
		return Unknown{}
	}
}

// PlainText is an unformatted string.
type PlainText string

func (PlainText) Kind() Kind  { return KindPlainText }
func (PlainText) Valid() bool { return true }
func (PlainText) isValue()    {}

// Boolean is a true/false toggle.
type Boolean bool

func (Boolean) Kind() Kind  { return KindBoolean }
func (Boolean) Valid() bool { return true }
func (Boolean) isValue()    {}

// Number is a JSON number.
type Number float64

func (Number) Kind() Kind  { return KindNumber }
func (Number) Valid() bool { return true }
func (Number) isValue()    {}

// ImageRef points at an image asset.
type ImageRef struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func (ImageRef) Kind() Kind { return KindImageRef }
func (ImageRef) isValue()   {}

func (i ImageRef) Valid() bool {
	return i.Width >= 0 && i.Height >= 0 && safeURL(i.Src, imageSchemes)
}

func (i ImageRef) MarshalJSON() ([]byte, error) {
	type wire ImageRef
	return json.Marshal(struct {
		Kind string `json:"$kind"`
		wire
	}{Kind: kindImage, wire: wire(i)})
}

// Link target windows accepted on LinkTarget.
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// LinkTarget is a navigable path and the window it opens in.
type LinkTarget struct {
	Path   string `json:"path"`
	Target string `json:"target,omitempty"`
}

func (LinkTarget) Kind() Kind { return KindLinkTarget }
func (LinkTarget) isValue()   {}

func (l LinkTarget) Valid() bool {
	switch l.Target {
	case "", TargetSelf, TargetBlank:
	default:
		return false
	}
	return safeURL(l.Path, linkSchemes)
}

func (l LinkTarget) MarshalJSON() ([]byte, error) {
	type wire LinkTarget
	return json.Marshal(struct {
		Kind string `json:"$kind"`
		wire
	}{Kind: kindLink, wire: wire(l)})
}

// RichText is structured inline-formatted text.
type RichText struct {
	Blocks []TextBlock `json:"blocks"`
}

// TextBlock is one paragraph-level element of rich text.
type TextBlock struct {
	Style string `json:"style"`
	Level int    `json:"level,omitempty"`
	Spans []Span `json:"spans"`
}

// Span is a run of text sharing the same inline marks.
type Span struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Code   bool   `json:"code,omitempty"`
	Href   string `json:"href,omitempty"`
}

// Rich text block styles.
const (
	StyleParagraph = "paragraph"
	StyleHeading   = "heading"
	StyleQuote     = "quote"
	StyleListItem  = "list_item"
	StyleCode      = "code"
)

func (RichText) Kind() Kind { return KindRichText }
func (RichText) isValue()   {}

func (r RichText) Valid() bool {
	for _, block := range r.Blocks {
		switch block.Style {
		case StyleParagraph, StyleQuote, StyleListItem, StyleCode:
		case StyleHeading:
			if block.Level < 1 || block.Level > 6 {
				return false
			}
		default:
			return false
		}
		for _, span := range block.Spans {
			if !safeURL(span.Href, linkSchemes) {
				return false
			}
		}
	}
	return true
}

func (r RichText) MarshalJSON() ([]byte, error) {
	blocks := r.Blocks
	if blocks == nil {
		blocks = []TextBlock{}
	}
	return json.Marshal(struct {
		Kind   string      `json:"$kind"`
		Blocks []TextBlock `json:"blocks"`
	}{Kind: kindRichText, Blocks: blocks})
}

// PlainString flattens rich text into its text content.
func (r RichText) PlainString() string {
	var b strings.Builder
	for i, block := range r.Blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, span := range block.Spans {
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

// Slot is an ordered sequence of child nodes.
type Slot []Node

func (Slot) Kind() Kind { return KindSlot }
func (Slot) isValue()   {}

// Valid reports true; children are checked node by node.
func (Slot) Valid() bool { return true }

func (s Slot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(s))
}

// Unknown carries a wire value whose shape matches no kind.
type Unknown struct {
	Raw json.RawMessage
}

func (Unknown) Kind() Kind  { return KindUnknown }
func (Unknown) Valid() bool { return false }
func (Unknown) isValue()    {}

func (u Unknown) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return []byte("null"), nil
	}
	return u.Raw, nil
}

var (
	linkSchemes  = map[string]bool{"http": true, "https": true, "mailto": true, "tel": true}
	imageSchemes = map[string]bool{"http": true, "https": true}
)

func safeURL(raw string, schemes map[string]bool) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return true
	}
	if strings.ContainsAny(trimmed, "\x00\r\n\t") {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if parsed.Scheme == "" {
		return true
	}
	return schemes[strings.ToLower(parsed.Scheme)]
}
