package ormpack

import "errors"

var (
	// ErrInvalidInput indicates a missing source, zero dimensions, or a pixel buffer
	// too short for its declared size and format.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates the three sources differ in width or height.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnsupportedFormat indicates a pixel format without an extraction rule.
	// Only returned when Options.StrictFormats is set.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrSinkFailure wraps failures reported by the writer that persists a CombinedImage.
	ErrSinkFailure = errors.New("sink failure")
)
