package convert

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultHighlightStyle is the chroma style used for fenced code blocks.
const DefaultHighlightStyle = "monokai"

// Markdown renders article bodies to HTML fragments with tables, footnotes
// and syntax-highlighted code blocks.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown builds a renderer using the given chroma style. An empty style
// uses DefaultHighlightStyle.
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = DefaultHighlightStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Footnote,
			extension.Strikethrough,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Markdown{md: md}
}

// Render converts a markdown body (frontmatter already removed) to HTML.
func (m *Markdown) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// TitleFromName turns a file stem such as "my-first_post" into "My First Post".
// A Caser is stateful, so one is created per call.
func TitleFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
