package gpu

import "errors"

var (
	// ErrNilDevice is returned when an adapter is created without a device.
	ErrNilDevice = errors.New("gpu: device is nil")

	// ErrNilQueue is returned when an adapter is created without a queue.
	ErrNilQueue = errors.New("gpu: queue is nil")

	// ErrInvalidPage is returned for page ids outside the atlas slot range.
	ErrInvalidPage = errors.New("gpu: invalid atlas page id")

	// ErrNotCompiled is returned when a mesh is synced before its first compile.
	ErrNotCompiled = errors.New("gpu: mesh not compiled")

	// ErrDestroyed is returned when using an adapter after Destroy.
	ErrDestroyed = errors.New("gpu: adapter destroyed")
)
