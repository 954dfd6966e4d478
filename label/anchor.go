package label

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Anchor names the point of a label's bounding box that is placed on the
// feature.
type Anchor uint8

const (
	AnchorCenter Anchor = iota
	AnchorTop
	AnchorBottom
	AnchorLeft
	AnchorRight
	AnchorTopLeft
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

var anchorNames = [...]string{
	AnchorCenter:      "center",
	AnchorTop:         "top",
	AnchorBottom:      "bottom",
	AnchorLeft:        "left",
	AnchorRight:       "right",
	AnchorTopLeft:     "top-left",
	AnchorTopRight:    "top-right",
	AnchorBottomLeft:  "bottom-left",
	AnchorBottomRight: "bottom-right",
}

func (a Anchor) String() string {
	if int(a) < len(anchorNames) {
		return anchorNames[a]
	}
	return "unknown"
}

// ParseAnchor parses names such as "center" or "top-left". Underscores are
// accepted in place of dashes.
func ParseAnchor(s string) (Anchor, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range anchorNames {
		if name == s {
			return Anchor(i), true
		}
	}
	return AnchorCenter, false
}

// Fraction returns the anchor position as a fraction of the bounding box,
// from (0,0) at the top-left corner to (1,1) at the bottom-right.
func (a Anchor) Fraction() mgl32.Vec2 {
	switch a {
	case AnchorTop:
		return mgl32.Vec2{0.5, 0}
	case AnchorBottom:
		return mgl32.Vec2{0.5, 1}
	case AnchorLeft:
		return mgl32.Vec2{0, 0.5}
	case AnchorRight:
		return mgl32.Vec2{1, 0.5}
	case AnchorTopLeft:
		return mgl32.Vec2{0, 0}
	case AnchorTopRight:
		return mgl32.Vec2{1, 0}
	case AnchorBottomLeft:
		return mgl32.Vec2{0, 1}
	case AnchorBottomRight:
		return mgl32.Vec2{1, 1}
	default:
		return mgl32.Vec2{0.5, 0.5}
	}
}
