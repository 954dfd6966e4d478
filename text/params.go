package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// TextTransform changes letter case before shaping.
type TextTransform uint8

const (
	TransformNone TextTransform = iota
	TransformCapitalize
	TransformUppercase
	TransformLowercase
)

// ParseTextTransform accepts "none", "capitalize", "uppercase" and "lowercase".
func ParseTextTransform(s string) (TextTransform, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return TransformNone, true
	case "capitalize":
		return TransformCapitalize, true
	case "uppercase":
		return TransformUppercase, true
	case "lowercase":
		return TransformLowercase, true
	}
	return TransformNone, false
}

// Apply transforms s using the case rules of lang, a BCP 47 tag.
func (t TextTransform) Apply(s, lang string) string {
	tag := xlanguage.Und
	if lang != "" {
		if parsed, err := xlanguage.Parse(lang); err == nil {
			tag = parsed
		}
	}
	switch t {
	case TransformCapitalize:
		return cases.Title(tag).String(s)
	case TransformUppercase:
		return cases.Upper(tag).String(s)
	case TransformLowercase:
		return cases.Lower(tag).String(s)
	default:
		return s
	}
}

// Align positions lines of different widths within the text block.
type Align uint8

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// ParseAlign accepts "center", "left" and "right".
func ParseAlign(s string) (Align, bool) {
	switch strings.ToLower(s) {
	case "", "center":
		return AlignCenter, true
	case "left":
		return AlignLeft, true
	case "right":
		return AlignRight, true
	}
	return AlignCenter, false
}

func (a Align) fraction() float64 {
	switch a {
	case AlignLeft:
		return 0
	case AlignRight:
		return 1
	default:
		return 0.5
	}
}

// Parameters control how a string is laid out.
type Parameters struct {
	Family string
	Style  string
	Weight string
	Size   float64 // pixels

	Fill        uint32 // 0xAABBGGRR
	Stroke      uint32
	StrokeWidth float64

	Transform TextTransform
	Language  string
	Align     Align

	// WordWrap breaks lines longer than MaxLineWidth runes at word boundaries.
	WordWrap     bool
	MaxLineWidth int
	// MaxLines truncates the text with an ellipsis; 0 means unlimited.
	MaxLines    int
	LineSpacing float64 // extra pixels between lines
}

// DefaultParameters returns the parameters of an unstyled label.
func DefaultParameters() Parameters {
	return Parameters{
		Family:       "Open Sans",
		Style:        "normal",
		Weight:       "400",
		Size:         16,
		Fill:         0xFF000000,
		Stroke:       0xFFFFFFFF,
		WordWrap:     true,
		MaxLineWidth: 15,
	}
}

// Validate reports parameters that cannot produce a layout.
func (p Parameters) Validate() error {
	switch {
	case p.Family == "":
		return fmt.Errorf("%w: empty font family", ErrInvalidParameters)
	case p.Size <= 0 || p.Size > 1024:
		return fmt.Errorf("%w: font size %v", ErrInvalidParameters, p.Size)
	case p.StrokeWidth < 0:
		return fmt.Errorf("%w: stroke width %v", ErrInvalidParameters, p.StrokeWidth)
	case p.MaxLineWidth < 0 || p.MaxLines < 0:
		return fmt.Errorf("%w: negative wrap limits", ErrInvalidParameters)
	}
	return nil
}

func (p Parameters) wrapWidth() int {
	if !p.WordWrap {
		return 0
	}
	return p.MaxLineWidth
}
