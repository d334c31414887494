package resource

import "strings"

// Kind is the closed set of resource types. Adding a kind is a schema change:
// every switch over Kind in this module must be extended alongside it.
type Kind uint8

const (
	Article Kind = iota + 1
	Photo
	Style
	Script
	Icon
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{Article, Photo, Style, Script, Icon}

func (k Kind) String() string {
	switch k {
	case Article:
		return "article"
	case Photo:
		return "photo"
	case Style:
		return "style"
	case Script:
		return "script"
	case Icon:
		return "icon"
	default:
		return "unknown"
	}
}

// extensions maps recognized source extensions (lowercase, with dot) to kinds.
var extensions = map[string]Kind{
	".md":   Article,
	".jpg":  Photo,
	".jpeg": Photo,
	".css":  Style,
	".js":   Script,
	".ico":  Icon,
}

// KindForExtension returns the kind for a file extension such as ".md".
// Matching is case-insensitive.
func KindForExtension(ext string) (Kind, bool) {
	k, ok := extensions[strings.ToLower(ext)]
	return k, ok
}
