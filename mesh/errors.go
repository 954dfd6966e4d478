package mesh

import "errors"

// ErrInvalidOffsets is reported when a MeshData's sub-batch offsets do not
// add up to its vertex and index counts.
var ErrInvalidOffsets = errors.New("mesh: invalid sub-batch offsets")

// ErrBatchTooLarge is reported for a drawable unit with more vertices than
// one batch can address.
var ErrBatchTooLarge = errors.New("mesh: sub-batch exceeds 16-bit index range")
