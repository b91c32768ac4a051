package filesource

import (
	"strings"

	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// RichTextConverter turns a Markdown body into the rich text prop value.
// It is stateless and safe for concurrent use.
type RichTextConverter struct {
	engine goldmark.Markdown
}

// NewRichTextConverter builds a converter with GFM enabled.
func NewRichTextConverter() *RichTextConverter {
	return &RichTextConverter{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Convert parses markdown and flattens its block structure into text blocks.
// Raw HTML, images and thematic breaks are dropped.
func (c *RichTextConverter) Convert(markdown []byte) tree.RichText {
	doc := c.engine.Parser().Parse(text.NewReader(markdown))
	w := &richTextWriter{src: markdown}
	w.blocks(doc, "")
	return tree.RichText{Blocks: w.out}
}

type richTextWriter struct {
	src []byte
	out []tree.TextBlock
}

// blocks walks block-level children of parent. style overrides the
// paragraph style inside quotes and list items.
func (w *richTextWriter) blocks(parent ast.Node, style string) {
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			w.emit(tree.TextBlock{Style: tree.StyleHeading, Level: n.Level}, n)
		case *ast.Paragraph, *ast.TextBlock:
			emitStyle := tree.StyleParagraph
			if style != "" {
				emitStyle = style
			}
			w.emit(tree.TextBlock{Style: emitStyle}, n)
		case *ast.Blockquote:
			w.blocks(n, tree.StyleQuote)
		case *ast.List:
			w.blocks(n, tree.StyleListItem)
		case *ast.ListItem:
			w.blocks(n, tree.StyleListItem)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			w.code(n)
		}
	}
}

func (w *richTextWriter) emit(block tree.TextBlock, node ast.Node) {
	block.Spans = trimSpans(w.inline(node, tree.Span{}, nil))
	if len(block.Spans) == 0 {
		return
	}
	w.out = append(w.out, block)
}

func (w *richTextWriter) code(node ast.Node) {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(w.src))
	}
	body := strings.TrimRight(b.String(), "\n")
	if body == "" {
		return
	}
	w.out = append(w.out, tree.TextBlock{
		Style: tree.StyleCode,
		Spans: []tree.Span{{Text: body, Code: true}},
	})
}

// inline appends the spans under node, inheriting marks.
func (w *richTextWriter) inline(node ast.Node, marks tree.Span, spans []tree.Span) []tree.Span {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			value := string(n.Segment.Value(w.src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				value += " "
			}
			spans = appendSpan(spans, marks, value)
		case *ast.String:
			spans = appendSpan(spans, marks, string(n.Value))
		case *ast.Emphasis:
			next := marks
			if n.Level >= 2 {
				next.Bold = true
			} else {
				next.Italic = true
			}
			spans = w.inline(n, next, spans)
		case *ast.CodeSpan:
			next := marks
			next.Code = true
			spans = w.inline(n, next, spans)
		case *ast.Link:
			next := marks
			next.Href = string(n.Destination)
			spans = w.inline(n, next, spans)
		case *ast.AutoLink:
			next := marks
			next.Href = string(n.URL(w.src))
			spans = appendSpan(spans, next, string(n.Label(w.src)))
		case *east.Strikethrough:
			spans = w.inline(n, marks, spans)
		case *ast.Image, *ast.RawHTML:
		default:
			spans = w.inline(n, marks, spans)
		}
	}
	return spans
}

// appendSpan merges text into the last span when the marks match.
func appendSpan(spans []tree.Span, marks tree.Span, value string) []tree.Span {
	if value == "" {
		return spans
	}
	if n := len(spans); n > 0 {
		last := spans[n-1]
		if last.Bold == marks.Bold && last.Italic == marks.Italic && last.Code == marks.Code && last.Href == marks.Href {
			spans[n-1].Text += value
			return spans
		}
	}
	marks.Text = value
	return append(spans, marks)
}

func trimSpans(spans []tree.Span) []tree.Span {
	if n := len(spans); n > 0 {
		spans[n-1].Text = strings.TrimRight(spans[n-1].Text, " ")
		if spans[n-1].Text == "" {
			spans = spans[:n-1]
		}
	}
	return spans
}
