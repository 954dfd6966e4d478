package atlas

import "math/bits"

// PageSet is a set of page ids backed by a 64-bit mask.
// The zero value is an empty set.
type PageSet uint64

// Set adds id to the set. Ids outside [0, MaxPages) are ignored.
func (s *PageSet) Set(id int) {
	if id < 0 || id >= MaxPages {
		return
	}
	*s |= 1 << uint(id)
}

// Has reports whether id is in the set.
func (s PageSet) Has(id int) bool {
	if id < 0 || id >= MaxPages {
		return false
	}
	return s&(1<<uint(id)) != 0
}

// Len returns the number of ids in the set.
func (s PageSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Union returns the ids present in s or o.
func (s PageSet) Union(o PageSet) PageSet {
	return s | o
}

// Without returns the ids of s that are not in o.
func (s PageSet) Without(o PageSet) PageSet {
	return s &^ o
}

// Each calls fn for every id in ascending order.
func (s PageSet) Each(fn func(id int)) {
	for m := uint64(s); m != 0; m &= m - 1 {
		fn(bits.TrailingZeros64(m))
	}
}
