package style

import (
	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/text"
)

// DefaultTextSource is the property labels read their text from.
const DefaultTextSource = "name"

// Rule labels the features it matches.
type Rule struct {
	Name string
	// Geometry limits the rule to some geometry types; empty matches all.
	Geometry []GeometryType
	// Filter requires each property to have the given value.
	Filter map[string]string
	// TextSource names the property holding the label text.
	TextSource string
	Text       text.Parameters
	Label      label.Options
}

// Matches reports whether f is labeled by r.
func (r *Rule) Matches(f *Feature) bool {
	if len(r.Geometry) > 0 {
		found := false
		for _, g := range r.Geometry {
			if g == f.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for k, v := range r.Filter {
		if f.Properties[k] != v {
			return false
		}
	}
	return true
}

func (r *Rule) textOf(f *Feature) string {
	src := r.TextSource
	if src == "" {
		src = DefaultTextSource
	}
	return f.Properties[src]
}
