// Package render turns article fragments and registry listings into complete
// site pages and minifies the result.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Static.
const (
	PageAbout    = "about"
	PageNotFound = "404"
)

const browserTitleLimit = 70

// Site carries the site-wide strings every page needs.
type Site struct {
	Title        string
	Subtitle     string
	BrowserTitle string
	Description  string
	BaseURL      string
	SiteName     string
	OGImage      string
	Author       string
}

// ArticleMeta describes one article page.
type ArticleMeta struct {
	Title       string
	Description string
	Image       string
	Link        string
	Created     time.Time
}

// ArticleEntry is one row of the index listing.
type ArticleEntry struct {
	Link    string
	Title   string
	Created time.Time
}

// PhotoEntry is one tile of the gallery.
type PhotoEntry struct {
	Preview string
	Image   string
	Label   string
}

type ogMeta struct {
	Property string
	Content  string
}

type page struct {
	Title        string
	Subtitle     string
	BrowserTitle string
	Description  string
	Metas        []ogMeta
	Scripts      []string
	Body         template.HTML
	Created      time.Time
	Articles     []ArticleEntry
	Photos       []PhotoEntry
}

// Renderer executes the embedded page templates. It is safe for concurrent use.
type Renderer struct {
	site  Site
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New(site Site) (*Renderer, error) {
	r := &Renderer{site: site, pages: map[string]*template.Template{}}
	for _, name := range []string{"article", "index", "gallery", PageAbout, PageNotFound} {
		tpl, err := template.New(name).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// Article wraps a rendered HTML fragment in the article layout.
func (r *Renderer) Article(fragment []byte, meta ArticleMeta) ([]byte, error) {
	title := meta.Title
	browserTitle := title
	if suffix := " | " + r.siteName(); len(title) <= browserTitleLimit-len(suffix) {
		browserTitle += suffix
	}
	description := meta.Description
	if description == "" {
		description = r.site.Description
	}
	image := meta.Image
	if image == "" {
		image = r.site.OGImage
	}

	p := r.base(strings.ToUpper(title), r.byline(), browserTitle, description, image)
	p.Metas = append([]ogMeta{
		{"og:type", "article"},
		{"og:url", r.absolute(meta.Link)},
		{"og:title", title},
	}, p.Metas...)
	p.Body = template.HTML(fragment) // #nosec G203 -- fragment is rendered from local markdown
	p.Created = meta.Created
	return r.execute("article", p)
}

// Index renders the article listing. Entries are rendered in the given order.
func (r *Renderer) Index(entries []ArticleEntry) ([]byte, error) {
	p := r.base(r.site.Title, r.site.Subtitle, r.site.BrowserTitle, r.site.Description, r.site.OGImage)
	p.Metas = append([]ogMeta{
		{"og:type", "website"},
		{"og:url", r.absolute("")},
		{"og:title", r.site.BrowserTitle},
	}, p.Metas...)
	p.Scripts = []string{"/date_script.js"}
	p.Articles = entries
	return r.execute("index", p)
}

// Gallery renders the photo grid. Entries are rendered in the given order.
func (r *Renderer) Gallery(entries []PhotoEntry) ([]byte, error) {
	p := r.base(r.site.Title, r.site.Subtitle, "Gallery | "+r.siteName(), r.site.Description, r.site.OGImage)
	p.Photos = entries
	return r.execute("gallery", p)
}

// Static renders a fixed page: PageAbout or PageNotFound.
func (r *Renderer) Static(name string) ([]byte, error) {
	switch name {
	case PageAbout:
		p := r.base(r.site.Title, r.site.Subtitle, "About | "+r.siteName(), r.site.Description, r.site.OGImage)
		return r.execute(PageAbout, p)
	case PageNotFound:
		p := r.base("404", "Page Not Found", "404 | "+r.siteName(), "404 Page Not Found", r.site.OGImage)
		return r.execute(PageNotFound, p)
	default:
		return nil, fmt.Errorf("unknown static page %q", name)
	}
}

func (r *Renderer) base(title, subtitle, browserTitle, description, image string) page {
	metas := []ogMeta{{"og:site_name", r.siteName()}}
	if image != "" {
		metas = append(metas, ogMeta{"og:image", r.absolute(image)})
	}
	return page{
		Title:        title,
		Subtitle:     subtitle,
		BrowserTitle: browserTitle,
		Description:  description,
		Metas:        metas,
	}
}

func (r *Renderer) execute(name string, p page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "base", p); err != nil {
		return nil, fmt.Errorf("render %s page: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) siteName() string {
	if r.site.SiteName != "" {
		return r.site.SiteName
	}
	return r.site.BrowserTitle
}

func (r *Renderer) byline() string {
	if r.site.Author != "" {
		return "By " + r.site.Author
	}
	return r.site.Subtitle
}

// absolute joins a site-relative link onto the base URL.
func (r *Renderer) absolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return strings.TrimSuffix(r.site.BaseURL, "/") + "/" + strings.TrimPrefix(link, "/")
}
