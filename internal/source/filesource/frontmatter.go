package filesource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-delivery/internal/tree"
)

// document is one parsed content file before it becomes a tree.Page.
type document struct {
	meta frontMatter
	body []byte
}

type frontMatter struct {
	ID           string       `yaml:"id"`
	Title        string       `yaml:"title"`
	Description  string       `yaml:"description"`
	Image        *imageMatter `yaml:"image"`
	Tags         []string     `yaml:"tags"`
	PublishedAt  time.Time    `yaml:"published_at"`
	Draft        bool         `yaml:"draft"`
	PreviewToken string       `yaml:"preview_token"`
	Blocks       []any        `yaml:"blocks"`
}

type imageMatter struct {
	Src    string `yaml:"src"`
	Alt    string `yaml:"alt"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

func parseDocument(data []byte) (document, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return document{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return document{meta: meta, body: bytes.TrimSpace(body)}, nil
}

func (m frontMatter) treeMeta() tree.Meta {
	out := tree.Meta{
		Title:       strings.TrimSpace(m.Title),
		Description: strings.TrimSpace(m.Description),
		PublishedAt: m.PublishedAt,
	}
	for _, tag := range m.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	if m.Image != nil && strings.TrimSpace(m.Image.Src) != "" {
		out.Image = &tree.ImageRef{
			Src:    strings.TrimSpace(m.Image.Src),
			Alt:    m.Image.Alt,
			Width:  m.Image.Width,
			Height: m.Image.Height,
		}
	}
	return out
}

// nodes runs the YAML block list through the JSON wire decoder so files
// and the remote API share one lenient decoding path.
func (m frontMatter) nodes() ([]tree.Node, error) {
	if len(m.Blocks) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(jsonCompatible(m.Blocks))
	if err != nil {
		return nil, fmt.Errorf("encode blocks: %w", err)
	}
	return tree.DecodeNodes(raw), nil
}

// jsonCompatible rewrites YAML maps keyed by interface{} into string keyed
// maps.
func jsonCompatible(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = jsonCompatible(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonCompatible(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonCompatible(item)
		}
		return out
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
