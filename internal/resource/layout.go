package resource

import (
	"os"
	"path/filepath"
)

// Output tree layout, relative to the output root.
const (
	ArticleDir   = "blog"
	ImageDir     = "image"
	ThumbnailDir = "thumbnail"

	IndexPage    = "index.html"
	GalleryPage  = "gallery.html"
	AboutPage    = "about.html"
	NotFoundPage = "404.html"
)

// OutputDirs are created before any unit writes.
var OutputDirs = []string{ArticleDir, ImageDir, ThumbnailDir}

// ArticleLink is the site-relative link of an article page.
func ArticleLink(name string) string { return ArticleDir + "/" + name + ".html" }

// ImageLink is the site-relative link of a full-size photo.
func ImageLink(name string) string { return ImageDir + "/" + name + ".jpg" }

// ThumbnailLink is the site-relative link of a photo thumbnail.
func ThumbnailLink(name string) string { return ThumbnailDir + "/" + name + ".jpg" }

// OutputPaths returns every file a resource produces under root.
// Photos produce the thumbnail first, then the full-size image.
func (r Resource) OutputPaths(root string) []string {
	switch r.Kind {
	case Article:
		return []string{filepath.Join(root, filepath.FromSlash(ArticleLink(r.Name)))}
	case Photo:
		return []string{
			filepath.Join(root, filepath.FromSlash(ThumbnailLink(r.Name))),
			filepath.Join(root, filepath.FromSlash(ImageLink(r.Name))),
		}
	case Style:
		return []string{filepath.Join(root, r.Name+".css")}
	case Script:
		return []string{filepath.Join(root, r.Name+".js")}
	case Icon:
		return []string{filepath.Join(root, r.Name+".ico")}
	default:
		return nil
	}
}

// OutputsExist reports whether every output of r is present under root.
// A photo with only one of its two sizes counts as missing.
func (r Resource) OutputsExist(root string) bool {
	paths := r.OutputPaths(root)
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
