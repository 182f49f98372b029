package poly

import "errors"

// Error taxonomy for per-polygon failures. All of them are local to a single
// input; the batch driver logs them with the source path and moves on.
var (
	// ErrMalformedInput marks input that cannot be interpreted as a polygon
	// at all: missing "verts" key, non-numeric coordinates, truncated .pol
	// data. Malformed input fails fast and is never retried.
	ErrMalformedInput = errors.New("malformed polygon input")

	// ErrDegeneratePolygon is returned when fewer than 3 vertices survive a
	// cleaning stage. The refiner fails rather than return a degenerate shape.
	ErrDegeneratePolygon = errors.New("degenerate polygon")

	// ErrExportRange is returned when a coordinate cannot be represented as a
	// bounded integer fraction (NaN, infinity, or numerator overflow).
	ErrExportRange = errors.New("coordinate outside exportable range")
)
