package atlas

import (
	"errors"
	"fmt"
)

// Sentinel errors for atlas package.
var (
	// ErrPageLimit is returned when every page slot is in use.
	ErrPageLimit = errors.New("atlas: page limit reached")

	// ErrGlyphTooLarge is returned when a padded glyph cannot fit in a page.
	ErrGlyphTooLarge = errors.New("atlas: glyph larger than page")

	// ErrInvalidPage is returned for page ids outside [0, MaxPages).
	ErrInvalidPage = errors.New("atlas: invalid page id")
)

// PageBoundsError describes a glyph rectangle that does not fit its page.
type PageBoundsError struct {
	Page       int
	X, Y, W, H int
	Pad        int
}

func (e *PageBoundsError) Error() string {
	return fmt.Sprintf("atlas: glyph %dx%d+%d at (%d,%d) exceeds page %d bounds",
		e.W, e.H, e.Pad, e.X, e.Y, e.Page)
}
