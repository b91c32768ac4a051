package render

import (
	"encoding/json"
	"io"
)

// Renderer writes a composed view. Implementations must not retain or
// mutate the view.
type Renderer interface {
	ContentType() string
	Render(w io.Writer, view any) error
}

// JSONRenderer encodes views as JSON.
type JSONRenderer struct {
	Indent string
}

var _ Renderer = JSONRenderer{}

func (JSONRenderer) ContentType() string {
	return "application/json"
}

func (r JSONRenderer) Render(w io.Writer, view any) error {
	encoder := json.NewEncoder(w)
	if r.Indent != "" {
		encoder.SetIndent("", r.Indent)
	}
	return encoder.Encode(view)
}
