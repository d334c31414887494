// Package frontmatter reads and writes the optional YAML header of articles.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta holds the article fields that override derived page metadata.
// Unknown keys are ignored.
type Meta struct {
	Title       string    `yaml:"title,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Image       string    `yaml:"image,omitempty"`
	Date        time.Time `yaml:"date,omitempty"`
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. Both LF and CRLF line endings are accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its frontmatter into Meta.
// A document without frontmatter yields a zero Meta and the full body.
func Parse(content []byte) (Meta, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	var meta Meta
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	return meta, body, nil
}

// Render emits a document with meta as YAML frontmatter followed by body.
// A zero Meta produces the body unchanged.
func Render(meta Meta, body []byte) ([]byte, error) {
	if meta == (Meta{}) {
		return body, nil
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
