package style

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// GeometryType is the kind of a feature's geometry.
type GeometryType uint8

const (
	GeometryPoint GeometryType = iota
	GeometryLine
	GeometryPolygon
)

func (g GeometryType) String() string {
	switch g {
	case GeometryPoint:
		return "point"
	case GeometryLine:
		return "line"
	case GeometryPolygon:
		return "polygon"
	}
	return "unknown"
}

// ParseGeometryType accepts "point", "line" and "polygon".
func ParseGeometryType(s string) (GeometryType, bool) {
	switch strings.ToLower(s) {
	case "point":
		return GeometryPoint, true
	case "line", "linestring":
		return GeometryLine, true
	case "polygon":
		return GeometryPolygon, true
	}
	return GeometryPoint, false
}

// Feature is one tile feature in tile-local model coordinates.
// Points holds the point, the line path, or the outer polygon ring.
type Feature struct {
	Type       GeometryType
	Points     []mgl32.Vec2
	Properties map[string]string
}
