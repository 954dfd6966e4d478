package labelmesh

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/style"
	"github.com/gogpu/labelmesh/text"
)

// SceneConfig is the label part of a scene file:
//
//	fonts:
//	  Open Sans:
//	    - url: fonts/OpenSans-Regular.ttf
//	    - url: fonts/OpenSans-Bold.ttf
//	      weight: bold
//	  Go:
//	    url: builtin:goregular
//	labels:
//	  - name: places
//	    geometry: [point, polygon]
//	    filter: {kind: city}
//	    font: {family: Go, size: 14, fill: "#333"}
//	    anchor: top
type SceneConfig struct {
	Fonts  map[string]FontFamily `yaml:"fonts"`
	Labels []RuleConfig          `yaml:"labels,omitempty"`
}

// FontFamily lists the faces of one family. A single face may be written
// as a mapping instead of a list.
type FontFamily []FontFace

// UnmarshalYAML accepts a face mapping or a list of them.
func (f *FontFamily) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var faces []FontFace
		if err := n.Decode(&faces); err != nil {
			return err
		}
		*f = faces
	case yaml.MappingNode:
		var face FontFace
		if err := n.Decode(&face); err != nil {
			return err
		}
		*f = FontFamily{face}
	default:
		return fmt.Errorf("line %d: font family must be a mapping or a list", n.Line)
	}
	return nil
}

// FontFace is one font resource of a family.
type FontFace struct {
	URL    string `yaml:"url"`
	Weight string `yaml:"weight,omitempty"`
	Style  string `yaml:"style,omitempty"`
}

func (f *FontFace) normalize() {
	f.Weight = normalizeWeight(f.Weight)
	if f.Style == "" {
		f.Style = "normal"
	}
}

// normalizeWeight maps CSS weight keywords to their numeric form.
func normalizeWeight(w string) string {
	switch strings.ToLower(w) {
	case "", "normal", "regular":
		return "400"
	case "bold":
		return "700"
	case "medium":
		return "500"
	case "light":
		return "300"
	}
	return w
}

// RuleConfig is one entry of the labels block.
type RuleConfig struct {
	Name     string            `yaml:"name"`
	Geometry []string          `yaml:"geometry,omitempty"`
	Filter   map[string]string `yaml:"filter,omitempty"`
	Source   string            `yaml:"source,omitempty"`
	Font     FontConfig        `yaml:"font"`
	Anchor   string            `yaml:"anchor,omitempty"`
	Offset   []float32         `yaml:"offset,omitempty"`
	Alpha    *float32          `yaml:"alpha,omitempty"`
}

// FontConfig holds the text parameters of a rule. Zero fields keep the
// values of text.DefaultParameters.
type FontConfig struct {
	Family       string  `yaml:"family,omitempty"`
	Style        string  `yaml:"style,omitempty"`
	Weight       string  `yaml:"weight,omitempty"`
	Size         float64 `yaml:"size,omitempty"`
	Fill         string  `yaml:"fill,omitempty"`
	Stroke       string  `yaml:"stroke,omitempty"`
	StrokeWidth  float64 `yaml:"stroke_width,omitempty"`
	Transform    string  `yaml:"transform,omitempty"`
	Align        string  `yaml:"align,omitempty"`
	Language     string  `yaml:"language,omitempty"`
	MaxLineWidth *int    `yaml:"max_line_width,omitempty"`
	MaxLines     int     `yaml:"max_lines,omitempty"`
	LineSpacing  float64 `yaml:"line_spacing,omitempty"`
}

// ParseSceneConfig reads a scene file.
func ParseSceneConfig(r io.Reader) (*SceneConfig, error) {
	var cfg SceneConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for family, faces := range cfg.Fonts {
		for i := range faces {
			if faces[i].URL == "" {
				return nil, fmt.Errorf("%w: font %q face %d has no url", ErrInvalidConfig, family, i)
			}
			faces[i].normalize()
		}
	}
	return &cfg, nil
}

// FontDescriptions returns one description per configured face.
func (c *SceneConfig) FontDescriptions() []text.FontDescription {
	var descs []text.FontDescription
	for family, faces := range c.Fonts {
		for _, face := range faces {
			descs = append(descs, text.NewFontDescription(
				family, face.Style, face.Weight, face.URL, text.FontTypeFromURI(face.URL)))
		}
	}
	return descs
}

// Rules converts the labels block.
func (c *SceneConfig) Rules() ([]style.Rule, error) {
	rules := make([]style.Rule, 0, len(c.Labels))
	for i := range c.Labels {
		r, err := c.Labels[i].Rule()
		if err != nil {
			return nil, fmt.Errorf("%w: label rule %d: %w", ErrInvalidConfig, i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Rule converts c to a style rule.
func (c *RuleConfig) Rule() (style.Rule, error) {
	r := style.Rule{
		Name:       c.Name,
		Filter:     c.Filter,
		TextSource: c.Source,
		Text:       text.DefaultParameters(),
		Label:      label.DefaultOptions(),
	}
	for _, g := range c.Geometry {
		gt, ok := style.ParseGeometryType(g)
		if !ok {
			return style.Rule{}, fmt.Errorf("unknown geometry %q", g)
		}
		r.Geometry = append(r.Geometry, gt)
	}
	if err := c.Font.apply(&r.Text); err != nil {
		return style.Rule{}, err
	}
	r.Label.Fill, r.Label.Stroke = r.Text.Fill, r.Text.Stroke

	if c.Anchor != "" {
		a, ok := label.ParseAnchor(c.Anchor)
		if !ok {
			return style.Rule{}, fmt.Errorf("unknown anchor %q", c.Anchor)
		}
		r.Label.Anchor = a
	}
	switch len(c.Offset) {
	case 0:
	case 2:
		r.Label.Offset = mgl32.Vec2{c.Offset[0], c.Offset[1]}
	default:
		return style.Rule{}, fmt.Errorf("offset needs 2 values, got %d", len(c.Offset))
	}
	if c.Alpha != nil {
		r.Label.Alpha = *c.Alpha
	}
	return r, r.Text.Validate()
}

func (c *FontConfig) apply(p *text.Parameters) error {
	if c.Family != "" {
		p.Family = c.Family
	}
	if c.Style != "" {
		p.Style = c.Style
	}
	if c.Weight != "" {
		p.Weight = normalizeWeight(c.Weight)
	}
	if c.Size != 0 {
		p.Size = c.Size
	}
	if c.Fill != "" {
		fill, err := ParseColor(c.Fill)
		if err != nil {
			return err
		}
		p.Fill = fill
	}
	if c.Stroke != "" {
		stroke, err := ParseColor(c.Stroke)
		if err != nil {
			return err
		}
		p.Stroke = stroke
	}
	p.StrokeWidth = c.StrokeWidth
	if c.Transform != "" {
		t, ok := text.ParseTextTransform(c.Transform)
		if !ok {
			return fmt.Errorf("unknown text transform %q", c.Transform)
		}
		p.Transform = t
	}
	if c.Align != "" {
		a, ok := text.ParseAlign(c.Align)
		if !ok {
			return fmt.Errorf("unknown align %q", c.Align)
		}
		p.Align = a
	}
	if c.Language != "" {
		p.Language = c.Language
	}
	if c.MaxLineWidth != nil {
		p.MaxLineWidth = *c.MaxLineWidth
		p.WordWrap = *c.MaxLineWidth > 0
	}
	p.MaxLines = c.MaxLines
	p.LineSpacing = c.LineSpacing
	return nil
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa" or an SVG color name
// into the 0xAABBGGRR form used by label vertices.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return packABGR(c.R, c.G, c.B, c.A), nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return packABGR(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func packABGR(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}
