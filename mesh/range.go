package mesh

// Range is a run of Length vertices starting at Start.
type Range struct {
	Start  int
	Length int
}

// End returns the index one past the last vertex.
func (r Range) End() int { return r.Start + r.Length }

// Valid reports whether r is non-empty and lies within [0, n).
func (r Range) Valid(n int) bool {
	return r.Start >= 0 && r.Length >= 1 && r.End() <= n
}
