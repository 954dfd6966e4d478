package text

import (
	"errors"
	"fmt"
)

// Sentinel errors for text package.
var (
	// ErrUnknownFont is returned for a font alias that was never registered.
	ErrUnknownFont = errors.New("text: unknown font")

	// ErrFontNotReady is returned while a font resource is still loading.
	ErrFontNotReady = errors.New("text: font not loaded yet")

	// ErrFontFailed is returned when a font resource could not be loaded.
	ErrFontFailed = errors.New("text: font failed to load")

	// ErrEmptyText is returned by LayoutText for an empty string.
	ErrEmptyText = errors.New("text: empty text")

	// ErrNoGlyphs is returned when layout produced no visible glyph.
	ErrNoGlyphs = errors.New("text: no glyphs produced")

	// ErrInvalidParameters is returned by Parameters.Validate.
	ErrInvalidParameters = errors.New("text: invalid parameters")

	// ErrUnsupportedScheme is returned by MultiLoader for URIs it cannot route.
	ErrUnsupportedScheme = errors.New("text: unsupported resource scheme")
)

// LoadError records a failed font resource load.
type LoadError struct {
	URI string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("text: load %q: %v", e.URI, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
