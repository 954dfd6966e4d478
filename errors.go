package labelmesh

import "errors"

var (
	// ErrResourcesLoading is returned by Frame while a font is still
	// downloading. The frame should be retried later.
	ErrResourcesLoading = errors.New("labelmesh: resources still loading")

	// ErrClosed is returned when using a Scene after Close.
	ErrClosed = errors.New("labelmesh: scene closed")

	// ErrUnknownTile is returned for a tile that was never processed or was evicted.
	ErrUnknownTile = errors.New("labelmesh: unknown tile")

	// ErrTileNotReady is returned for a tile whose labels are still being built.
	ErrTileNotReady = errors.New("labelmesh: tile not built")

	// ErrLabelIndex is returned for a label index outside the tile.
	ErrLabelIndex = errors.New("labelmesh: label index out of range")

	// ErrLabelHidden is returned when updating a label not drawn in the last frame.
	ErrLabelHidden = errors.New("labelmesh: label not drawn")

	// ErrInvalidConfig is returned for scene files that cannot be applied.
	ErrInvalidConfig = errors.New("labelmesh: invalid scene config")
)
