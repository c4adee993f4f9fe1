package region

import "errors"

var (
	// ErrUnknownColor reports an image colour missing from the palette when
	// building in strict mode.
	ErrUnknownColor = errors.New("unknown colour")
	// ErrDuplicateColor reports two region names sharing one colour.
	ErrDuplicateColor = errors.New("duplicate colour")
	// ErrInvalidColor reports a colour string that is neither a known colour
	// name nor #rgb / #rrggbb.
	ErrInvalidColor = errors.New("invalid colour")
	// ErrTooManyRegions reports more than MaxRegions named regions.
	ErrTooManyRegions = errors.New("too many regions")
	// ErrNoRegions reports an initialisation without a region map.
	ErrNoRegions = errors.New("no region map")
	// ErrUnmappedRegion marks an initialisation that left cells untouched.
	// It is a diagnostic, returned only from InitReport.Err.
	ErrUnmappedRegion = errors.New("unmapped region")
)
