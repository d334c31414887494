package render

import (
	"fmt"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mediaHTML = "text/html"
	mediaCSS  = "text/css"
	mediaJS   = "application/javascript"
)

// Minifier compresses pages, stylesheets and scripts. Inline <style> and
// <script> content in pages is minified too.
type Minifier struct {
	m *minify.M
}

// NewMinifier registers the HTML, CSS and JavaScript minifiers.
func NewMinifier() *Minifier {
	m := minify.New()
	m.Add(mediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return &Minifier{m: m}
}

// HTML minifies a full page.
func (mi *Minifier) HTML(page []byte) ([]byte, error) {
	return mi.run(mediaHTML, page)
}

// CSS minifies a stylesheet.
func (mi *Minifier) CSS(src []byte) ([]byte, error) {
	return mi.run(mediaCSS, src)
}

// JS minifies a script.
func (mi *Minifier) JS(src []byte) ([]byte, error) {
	return mi.run(mediaJS, src)
}

func (mi *Minifier) run(mediatype string, in []byte) ([]byte, error) {
	out, err := mi.m.Bytes(mediatype, in)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", mediatype, err)
	}
	return out, nil
}
