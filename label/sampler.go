package label

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// LineSampler samples positions and directions along a polyline by
// distance from its start.
type LineSampler struct {
	points []mgl32.Vec2
	dist   []float32 // cumulative length at each point
}

// Reset replaces the polyline. Repeated points are dropped.
func (s *LineSampler) Reset(points []mgl32.Vec2) {
	s.points = s.points[:0]
	s.dist = s.dist[:0]
	for _, p := range points {
		if n := len(s.points); n > 0 {
			d := p.Sub(s.points[n-1]).Len()
			if d == 0 {
				continue
			}
			s.points = append(s.points, p)
			s.dist = append(s.dist, s.dist[n-1]+d)
			continue
		}
		s.points = append(s.points, p)
		s.dist = append(s.dist, 0)
	}
}

// Len returns the number of distinct points.
func (s *LineSampler) Len() int { return len(s.points) }

// Length returns the total length of the polyline.
func (s *LineSampler) Length() float32 {
	if len(s.dist) == 0 {
		return 0
	}
	return s.dist[len(s.dist)-1]
}

// Reverse flips the direction of the polyline.
func (s *LineSampler) Reverse() {
	slices.Reverse(s.points)
	total := s.Length()
	slices.Reverse(s.dist)
	for i := range s.dist {
		s.dist[i] = total - s.dist[i]
	}
}

// Sample returns the point at distance d and the angle of the segment
// containing it, in radians. ok is false when d is outside the line.
func (s *LineSampler) Sample(d float32) (pos mgl32.Vec2, angle float32, ok bool) {
	if len(s.points) < 2 || d < 0 || d > s.Length() {
		return mgl32.Vec2{}, 0, false
	}
	// First point whose distance is >= d, at least the second.
	i, _ := slices.BinarySearch(s.dist, d)
	i = max(1, i)
	a, b := s.points[i-1], s.points[i]
	seg := b.Sub(a)
	t := (d - s.dist[i-1]) / (s.dist[i] - s.dist[i-1])
	return a.Add(seg.Mul(t)), float32(math.Atan2(float64(seg[1]), float64(seg[0]))), true
}
