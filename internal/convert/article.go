package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// Articles renders markdown articles into blog/<name>.html.
type Articles struct {
	markdown *Markdown
	renderer *render.Renderer
	minifier *render.Minifier
	logger   *slog.Logger
}

// NewArticles wires the article pipeline. A nil logger uses slog.Default().
func NewArticles(md *Markdown, renderer *render.Renderer, minifier *render.Minifier, logger *slog.Logger) *Articles {
	if logger == nil {
		logger = slog.Default()
	}
	return &Articles{markdown: md, renderer: renderer, minifier: minifier, logger: logger}
}

// Convert reads the article, renders its page and writes it.
func (a *Articles) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	a.logger.Info("Reading article", logfields.Path(res.Path))
	raw, err := readSource(res.Path)
	if err != nil {
		return err
	}

	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Path, err)
	}
	fragment, err := a.markdown.Render(body)
	if err != nil {
		return err
	}

	page, err := a.renderer.Article(fragment, ArticlePageMeta(res, meta))
	if err != nil {
		return err
	}
	page, err = a.minifier.HTML(page)
	if err != nil {
		return err
	}

	out := filepath.Join(outRoot, filepath.FromSlash(resource.ArticleLink(res.Name)))
	a.logger.Info("Writing article", logfields.Resource(res.Name), logfields.Path(out))
	return writeOutput(out, page)
}

// ArticlePageMeta derives page metadata for an article. Frontmatter fields
// take precedence over the title-cased file name and the scan timing.
func ArticlePageMeta(res resource.Resource, meta frontmatter.Meta) render.ArticleMeta {
	am := render.ArticleMeta{
		Title:       TitleFromName(res.Name),
		Description: meta.Description,
		Image:       meta.Image,
		Link:        resource.ArticleLink(res.Name),
		Created:     res.Timing.Created,
	}
	if meta.Title != "" {
		am.Title = meta.Title
	}
	if !meta.Date.IsZero() {
		am.Created = meta.Date.UTC()
	}
	return am
}
