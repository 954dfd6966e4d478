package atlas

// shelfAllocator packs rectangles into horizontal shelves.
//
// Each shelf is as tall as the tallest rectangle placed on it. A rectangle
// goes onto the shelf that wastes the least height; a new shelf is opened
// below the last one when none fits. Freed space is only recovered by reset.
type shelfAllocator struct {
	width, height int
	gap           int
	shelves       []shelf
	usedArea      int
}

type shelf struct {
	y, height int
	x         int // next free column
}

func newShelfAllocator(width, height, gap int) *shelfAllocator {
	return &shelfAllocator{
		width:   width,
		height:  height,
		gap:     gap,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate reserves a w×h rectangle and returns its top-left corner.
func (a *shelfAllocator) allocate(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 || w > a.width || h > a.height {
		return -1, -1, false
	}
	gw := w + a.gap

	best := -1
	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+w > a.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow, and only into free rows.
			if i != len(a.shelves)-1 || s.y+h > a.height {
				continue
			}
		}
		if best < 0 || a.waste(i, h) < a.waste(best, h) {
			best = i
		}
	}

	if best >= 0 {
		s := &a.shelves[best]
		if h > s.height {
			s.height = h
		}
		x, y = s.x, s.y
		s.x += gw
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.gap
	}
	if newY+h > a.height {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: gw})
	a.usedArea += w * h
	return 0, newY, true
}

// waste is the unused height left on shelf i by an h-tall rectangle.
// Growing the last shelf counts as no waste.
func (a *shelfAllocator) waste(i, h int) int {
	if d := a.shelves[i].height - h; d > 0 {
		return d
	}
	return 0
}

func (a *shelfAllocator) reset() {
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}

// utilization returns the fraction of the page covered by allocations.
func (a *shelfAllocator) utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}
