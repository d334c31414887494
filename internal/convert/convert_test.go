package convert

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/timing"
)

func sourceFile(t *testing.T, name string, data []byte) resource.Resource {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	ext := filepath.Ext(name)
	kind, ok := resource.KindForExtension(ext)
	require.True(t, ok)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return resource.Resource{
		Source: resource.Source{Name: name[:len(name)-len(ext)], Path: path, Kind: kind},
		Timing: timing.Timing{Created: at, Modified: at},
	}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown("")
	out, err := md.Render([]byte("# Hi\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nNote[^1]\n\n[^1]: foot\n\n```go\nfunc main() {}\n```\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "footnote")
	assert.Contains(t, html, "<span style=")
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "My First Post", TitleFromName("my-first_post"))
	assert.Equal(t, "Coffee", TitleFromName("coffee"))
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		srcW, srcH, maxW, maxH int
		w, h                   int
	}{
		{4000, 3000, 640, 360, 480, 360},
		{1920, 1080, 640, 360, 640, 360},
		{3000, 1000, 1280, 720, 1280, 426},
		{100, 50, 1280, 720, 1280, 640},
		{0, 10, 640, 360, 0, 0},
	}
	for _, tt := range tests {
		w, h := FitWithin(tt.srcW, tt.srcH, tt.maxW, tt.maxH)
		assert.Equal(t, [2]int{tt.w, tt.h}, [2]int{w, h}, "%dx%d", tt.srcW, tt.srcH)
	}
}

func TestPhotosWritesBothSizes(t *testing.T) {
	res := sourceFile(t, "bar.jpg", testJPEG(t, 160, 120))
	out := t.TempDir()

	require.NoError(t, NewPhotos(nil, nil).Convert(context.Background(), res, out))

	for _, p := range res.OutputPaths(out) {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.LessOrEqual(t, cfg.Width, FullWidth)
		assert.LessOrEqual(t, cfg.Height, FullHeight)
	}

	thumb, err := os.ReadFile(filepath.Join(out, "thumbnail", "bar.jpg"))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 480, cfg.Width)
	assert.Equal(t, 360, cfg.Height)
}

func TestPhotosRejectsCorruptData(t *testing.T) {
	res := sourceFile(t, "broken.jpg", []byte("not a jpeg"))
	err := NewPhotos(nil, nil).Convert(context.Background(), res, t.TempDir())
	require.Error(t, err)
}

func TestArticlesConvert(t *testing.T) {
	renderer, err := render.New(render.Site{Title: "SITE", SiteName: "Site", BaseURL: "https://example.org"})
	require.NoError(t, err)
	a := NewArticles(NewMarkdown(""), renderer, render.NewMinifier(), nil)

	res := sourceFile(t, "hello-world.md", []byte("---\ndescription: greeting\n---\nHello **world**\n"))
	out := t.TempDir()
	require.NoError(t, a.Convert(context.Background(), res, out))

	page, err := os.ReadFile(filepath.Join(out, "blog", "hello-world.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<strong>world</strong>")
	assert.Contains(t, string(page), "HELLO WORLD")
	assert.Contains(t, string(page), "greeting")
}

func TestArticlePageMeta_FrontmatterWins(t *testing.T) {
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	res := resource.Resource{
		Source: resource.Source{Name: "post", Kind: resource.Article},
		Timing: timing.Timing{Created: time.Unix(0, 0).UTC()},
	}

	meta := ArticlePageMeta(res, frontmatter.Meta{Title: "Custom", Date: at})
	assert.Equal(t, "Custom", meta.Title)
	assert.True(t, meta.Created.Equal(at))
	assert.Equal(t, "blog/post.html", meta.Link)

	meta = ArticlePageMeta(res, frontmatter.Meta{})
	assert.Equal(t, "Post", meta.Title)
	assert.True(t, meta.Created.Equal(res.Timing.Created))
}

func TestAssetConverters(t *testing.T) {
	minifier := render.NewMinifier()
	out := t.TempDir()
	ctx := context.Background()

	style := sourceFile(t, "styles.css", []byte("body {\n  margin: 0px;\n}\n"))
	require.NoError(t, NewStyles(CSSCompiler{Minifier: minifier}, nil).Convert(ctx, style, out))
	css, err := os.ReadFile(filepath.Join(out, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}", string(css))

	script := sourceFile(t, "app.js", []byte("function add(a, b) {\n  return a + b;\n}\n"))
	require.NoError(t, NewScripts(minifier, nil).Convert(ctx, script, out))
	_, err = os.Stat(filepath.Join(out, "app.js"))
	require.NoError(t, err)

	icon := sourceFile(t, "favicon.ico", []byte{0, 0, 1, 0})
	require.NoError(t, NewIcons(nil).Convert(ctx, icon, out))
	data, err := os.ReadFile(filepath.Join(out, "favicon.ico"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 0}, data)
}
