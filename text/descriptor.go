package text

import (
	"path"
	"strings"
)

// FontType is the container format of a font resource.
type FontType uint8

const (
	// FontTypeTTF is a TrueType or OpenType font.
	FontTypeTTF FontType = iota
	// FontTypeWOFF is a web font.
	FontTypeWOFF
)

// String returns the conventional file extension without the dot.
func (t FontType) String() string {
	if t == FontTypeWOFF {
		return "woff"
	}
	return "ttf"
}

// FontTypeFromURI guesses the format from the URI extension.
func FontTypeFromURI(uri string) FontType {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	switch strings.ToLower(path.Ext(uri)) {
	case ".woff", ".woff2":
		return FontTypeWOFF
	default:
		return FontTypeTTF
	}
}

// FontDescription identifies one font resource of a scene.
// It is immutable once constructed.
type FontDescription struct {
	URI         string
	Alias       string
	BundleAlias string
	Type        FontType
}

// NewFontDescription builds a description for family, style and weight.
func NewFontDescription(family, style, weight, uri string, typ FontType) FontDescription {
	return FontDescription{
		URI:         uri,
		Alias:       Alias(family, style, weight),
		BundleAlias: BundleAlias(family, style, weight, typ),
		Type:        typ,
	}
}

// Alias returns the lookup key of a font, "family_weight_style".
func Alias(family, style, weight string) string {
	return family + "_" + weight + "_" + style
}

// BundleAlias returns the file name a bundled font is expected under,
// "family-weightstyle.ttf" or ".woff".
func BundleAlias(family, style, weight string, typ FontType) string {
	return family + "-" + weight + style + "." + typ.String()
}
