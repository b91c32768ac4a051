package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	kindField    = "$kind"
	kindRichText = "richtext"
	kindImage    = "image"
	kindLink     = "link"
)

var (
	// ErrPageEnvelopeInvalid indicates the payload is not a JSON object.
	ErrPageEnvelopeInvalid = errors.New("tree: page payload must be a JSON object")
)

type entry struct {
	key string
	raw json.RawMessage
}

// DecodePage decodes a page envelope. Only malformed JSON or a non-object
// payload fail; fields with unexpected shapes decode to their zero value and
// block props with unexpected shapes decode to Unknown.
func DecodePage(data []byte) (*Page, error) {
	if !json.Valid(data) {
		return nil, ErrPageEnvelopeInvalid
	}
	fields, ok := objectEntries(data)
	if !ok {
		return nil, ErrPageEnvelopeInvalid
	}
	page := &Page{}
	for _, field := range fields {
		switch field.key {
		case "id":
			page.ID = decodeString(field.raw)
		case "type", "model":
			page.Type = decodeString(field.raw)
		case "slug":
			page.Slug = decodeString(field.raw)
		case "locale":
			page.Locale = decodeString(field.raw)
		case "title":
			page.Meta.Title = decodeString(field.raw)
		case "description":
			page.Meta.Description = decodeString(field.raw)
		case "image":
			if image, ok := decodeImage(field.raw); ok {
				page.Meta.Image = &image
			}
		case "tags":
			page.Meta.Tags = decodeStrings(field.raw)
		case "publishedAt", "published_at":
			page.Meta.PublishedAt = decodeTime(field.raw)
		case "blocks":
			page.Root = DecodeNodes(field.raw)
		}
	}
	return page, nil
}

// DecodePages decodes a JSON array of page envelopes, skipping entries that
// are not objects.
func DecodePages(data []byte) ([]*Page, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]*Page, 0, len(items))
	for _, item := range items {
		page, err := DecodePage(item)
		if err != nil {
			continue
		}
		out = append(out, page)
	}
	return out, nil
}

// DecodeNodes decodes a JSON array of nodes. Elements that are not objects
// become untyped nodes so that position is preserved for the sanitizer.
func DecodeNodes(raw json.RawMessage) []Node {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]Node, 0, len(items))
	for _, item := range items {
		out = append(out, decodeNode(item))
	}
	return out
}

func decodeNode(raw json.RawMessage) Node {
	fields, ok := objectEntries(raw)
	if !ok {
		return Node{}
	}
	node := Node{}
	for _, field := range fields {
		switch field.key {
		case "type", "@type", "_type":
			node.Type = decodeString(field.raw)
		case "id", "_id":
			node.ID = decodeString(field.raw)
		case "props":
			props, ok := objectEntries(field.raw)
			if !ok {
				continue
			}
			node.Props = make(Props, 0, len(props))
			for _, prop := range props {
				node.Props = node.Props.Set(prop.key, DecodeValue(prop.raw))
			}
		}
	}
	return node
}

// DecodeValue infers a prop value from its JSON shape.
func DecodeValue(raw json.RawMessage) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Unknown{}
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return unknown(trimmed)
		}
		return PlainText(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return unknown(trimmed)
		}
		return Boolean(b)
	case '[':
		return Slot(DecodeNodes(trimmed))
	case '{':
		return decodeObjectValue(trimmed)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return unknown(trimmed)
		}
		return Number(f)
	default:
		return unknown(trimmed)
	}
}

func decodeObjectValue(raw json.RawMessage) Value {
	var probe struct {
		Kind string `json:"$kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return unknown(raw)
	}
	switch strings.ToLower(strings.TrimSpace(probe.Kind)) {
	case kindImage:
		if image, ok := decodeImage(raw); ok {
			return image
		}
	case kindLink:
		var link LinkTarget
		if err := json.Unmarshal(raw, &link); err == nil {
			return link
		}
	case kindRichText:
		var text RichText
		if err := json.Unmarshal(raw, &text); err == nil {
			return text
		}
	}
	return unknown(raw)
}

func decodeImage(raw json.RawMessage) (ImageRef, bool) {
	var image ImageRef
	if err := json.Unmarshal(raw, &image); err != nil {
		return ImageRef{}, false
	}
	return image, true
}

func unknown(raw []byte) Unknown {
	copied := make(json.RawMessage, len(raw))
	copy(copied, raw)
	return Unknown{Raw: copied}
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(decodeString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeTime(raw json.RawMessage) time.Time {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return time.Time{}
	}
	if trimmed[0] == '"' {
		value := decodeString(trimmed)
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			return parsed.UTC()
		}
		return time.Time{}
	}
	var millis float64
	if err := json.Unmarshal(trimmed, &millis); err != nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(millis)).UTC()
}

// objectEntries streams a JSON object into key/value pairs preserving source
// order. Duplicate keys keep their first position and last value.
func objectEntries(raw []byte) ([]entry, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	out := []entry{}
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		if pos, seen := index[key]; seen {
			out[pos].raw = value
			continue
		}
		index[key] = len(out)
		out = append(out, entry{key: key, raw: value})
	}
	return out, true
}
