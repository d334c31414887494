package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\nbody\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestSplit_EmptyFrontmatter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_Fields(t *testing.T) {
	input := []byte("---\ntitle: \" Hello World \"\ndescription: A post\ndate: 2024-05-01T10:00:00Z\nextra: ignored\n---\nText\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello World", meta.Title)
	require.Equal(t, "A post", meta.Description)
	require.True(t, meta.Date.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.Equal(t, []byte("Text\n"), body)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unclosed\n---\nText\n"))
	require.Error(t, err)
}

func TestRender_RoundTrip(t *testing.T) {
	meta := Meta{Title: "Welcome", Description: "First post"}
	doc, err := Render(meta, []byte("# Hi\n"))
	require.NoError(t, err)

	got, body, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, meta, got)
	require.Equal(t, []byte("# Hi\n"), body)
}

func TestRender_ZeroMetaReturnsBody(t *testing.T) {
	doc, err := Render(Meta{}, []byte("plain"))
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), doc)
}
