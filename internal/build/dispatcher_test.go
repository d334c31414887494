package build

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/convert"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/registry"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/timing"
)

// countingConverter records calls per resource key and writes placeholder outputs.
type countingConverter struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCounting() *countingConverter {
	return &countingConverter{calls: map[string]int{}, fail: map[string]error{}}
}

func (c *countingConverter) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	c.mu.Lock()
	c.calls[res.Key()]++
	err := c.fail[res.Key()]
	c.mu.Unlock()
	if err != nil {
		return err
	}
	for _, p := range res.OutputPaths(outRoot) {
		if err := os.WriteFile(p, []byte(res.Key()), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (c *countingConverter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func (c *countingConverter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingConverter) all() Converters {
	return Converters{Article: c, Photo: c, Style: c, Script: c, Icon: c}
}

type stubPages struct{}

func (stubPages) Index(entries []render.ArticleEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Link + "\n")
	}
	return buf.Bytes(), nil
}

func (stubPages) Gallery(entries []render.PhotoEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Image + "\n")
	}
	return buf.Bytes(), nil
}

func (stubPages) Static(name string) ([]byte, error) { return []byte(name), nil }

type passthrough struct{}

func (passthrough) HTML(page []byte) ([]byte, error) { return page, nil }

func res(name string, kind resource.Kind, created int64, changed bool) resource.Resource {
	at := time.Unix(created, 0).UTC()
	return resource.Resource{
		Source:  resource.Source{Name: name, Kind: kind, Path: name},
		Timing:  timing.Timing{Created: at, Modified: at},
		Changed: changed,
	}
}

func TestBuild_ChangedResourcesConvertedExactlyOnce(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{}, WithWorkers(2))

	reg := registry.New([]resource.Resource{
		res("foo", resource.Article, 3, true),
		res("bar", resource.Photo, 2, true),
		res("styles", resource.Style, 1, true),
	})
	result, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Selected)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, []string{"article/foo", "photo/bar", "style/styles"}, result.Processed)
	for _, key := range result.Processed {
		assert.Equal(t, 1, conv.count(key), key)
	}
}

func TestBuild_IdempotentWhenUnchangedAndOutputsExist(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{})

	changed := registry.New([]resource.Resource{
		res("foo", resource.Article, 2, true),
		res("bar", resource.Photo, 1, true),
	})
	_, err := d.Build(context.Background(), changed, out, false)
	require.NoError(t, err)
	require.Equal(t, 2, conv.total())

	unchanged := registry.New([]resource.Resource{
		res("foo", resource.Article, 2, false),
		res("bar", resource.Photo, 1, false),
	})
	result, err := d.Build(context.Background(), unchanged, out, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Selected)
	assert.Equal(t, 2, conv.total(), "no converter may run for unchanged resources")
}

func TestBuild_MissingOutputSelectsUnchangedResource(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{})

	reg := registry.New([]resource.Resource{res("app", resource.Script, 1, false)})
	result, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Selected)
	assert.Equal(t, 1, conv.count("script/app"))
	assert.FileExists(t, filepath.Join(out, "app.js"))
}

func TestBuild_ForceSelectsEverything(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{})

	reg := registry.New([]resource.Resource{res("favicon", resource.Icon, 1, false)})
	_, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)

	_, err = d.Build(context.Background(), reg, out, true)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.count("icon/favicon"))
}

func TestBuild_FailureDoesNotStopSiblings(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	boom := errors.New("corrupt image")
	conv.fail["photo/broken"] = boom
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{}, WithWorkers(1))

	reg := registry.New([]resource.Resource{
		res("broken", resource.Photo, 3, true),
		res("a", resource.Article, 2, true),
		res("b", resource.Article, 1, true),
	})
	result, err := d.Build(context.Background(), reg, out, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var failures *Failures
	require.True(t, errors.As(err, &failures))
	require.Len(t, failures.Errors, 1)
	assert.Equal(t, "broken", failures.Errors[0].Name)
	assert.Equal(t, resource.Photo, failures.Errors[0].Kind)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.FileExists(t, filepath.Join(out, "blog", "b.html"))
	assert.FileExists(t, filepath.Join(out, "index.html"), "aggregation runs after failures")
}

func TestBuild_AggregatePagesInRegistryOrder(t *testing.T) {
	out := t.TempDir()
	d := NewDispatcher(newCounting().all(), stubPages{}, passthrough{})

	reg := registry.New([]resource.Resource{
		res("old", resource.Article, 1, false),
		res("new", resource.Article, 5, false),
		res("p1", resource.Photo, 2, false),
		res("p2", resource.Photo, 9, false),
	})
	_, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "blog/new.html\nblog/old.html\n", string(index))

	gallery, err := os.ReadFile(filepath.Join(out, "gallery.html"))
	require.NoError(t, err)
	assert.Equal(t, "image/p2.jpg\nimage/p1.jpg\n", string(gallery))

	for _, page := range []string{"about.html", "404.html"} {
		assert.FileExists(t, filepath.Join(out, page))
	}
}

func TestBuild_MissingConverterIsUnitFailure(t *testing.T) {
	out := t.TempDir()
	conv := newCounting()
	converters := conv.all()
	converters.Icon = nil
	d := NewDispatcher(converters, stubPages{}, passthrough{})

	reg := registry.New([]resource.Resource{
		res("favicon", resource.Icon, 2, true),
		res("post", resource.Article, 1, true),
	})
	_, err := d.Build(context.Background(), reg, out, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConverter))
	assert.Equal(t, 1, conv.count("article/post"))
}

func TestBuild_OutputRootIsAFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(out, nil, 0o600))
	conv := newCounting()
	d := NewDispatcher(conv.all(), stubPages{}, passthrough{})

	_, err := d.Build(context.Background(), registry.New(nil), out, false)
	require.Error(t, err)
	assert.Equal(t, 0, conv.total())
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func realDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	renderer, err := render.New(render.Site{Title: "T", SiteName: "S", BaseURL: "https://example.org"})
	require.NoError(t, err)
	minifier := render.NewMinifier()
	return NewDispatcher(Converters{
		Article: convert.NewArticles(convert.NewMarkdown(""), renderer, minifier, nil),
		Photo:   convert.NewPhotos(nil, nil),
		Style:   convert.NewStyles(convert.CSSCompiler{Minifier: minifier}, nil),
		Script:  convert.NewScripts(minifier, nil),
		Icon:    convert.NewIcons(nil),
	}, renderer, minifier)
}

func TestBuild_PartialPhotoOutputRegeneratesBoth(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeJPEG(t, filepath.Join(src, "bar.jpg"), 64, 48)
	d := realDispatcher(t)

	reg, err := registry.Scan(src, nil, nil)
	require.NoError(t, err)
	_, err = d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)

	thumb := filepath.Join(out, "thumbnail", "bar.jpg")
	full := filepath.Join(out, "image", "bar.jpg")
	require.NoError(t, os.Remove(full))
	require.NoError(t, os.WriteFile(thumb, []byte("stale"), 0o600))

	reg, err = registry.Scan(src, reg.Timings(), nil)
	require.NoError(t, err)
	require.Empty(t, reg.Changed())

	result, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo/bar"}, result.Processed)

	data, err := os.ReadFile(thumb)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("stale"), data, "thumbnail must be regenerated with the full-size image")
	assert.FileExists(t, full)
}

func TestBuild_NewArticleLeavesUnchangedPhotoUntouched(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeJPEG(t, filepath.Join(src, "bar.jpg"), 64, 48)
	d := realDispatcher(t)

	reg, err := registry.Scan(src, manifest.New(), nil)
	require.NoError(t, err)
	_, err = d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)
	prev := reg.Timings()

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	type snapshot struct {
		data  []byte
		mtime time.Time
	}
	before := map[string]snapshot{}
	for _, p := range []string{filepath.Join(out, "thumbnail", "bar.jpg"), filepath.Join(out, "image", "bar.jpg")} {
		require.NoError(t, os.Chtimes(p, past, past))
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		info, err := os.Stat(p)
		require.NoError(t, err)
		before[p] = snapshot{data: data, mtime: info.ModTime()}
	}

	require.NoError(t, os.WriteFile(filepath.Join(src, "foo.md"), []byte("# Foo\n"), 0o600))
	reg, err = registry.Scan(src, prev, nil)
	require.NoError(t, err)

	result, err := d.Build(context.Background(), reg, out, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"article/foo"}, result.Processed)
	assert.FileExists(t, filepath.Join(out, "blog", "foo.html"))

	for p, snap := range before {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, snap.data, data, p)
		assert.True(t, snap.mtime.Equal(info.ModTime()), p)
	}
}

func TestRunAll_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	results := runAll(context.Background(), items, 3, func(context.Context, int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.Len(t, results, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunAll_CancelledContextSkipsUnstartedUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := runAll(ctx, []int{1, 2, 3}, 1, func(context.Context, int) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	assert.Equal(t, int32(0), calls.Load())
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
