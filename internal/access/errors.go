package access

import "github.com/rotisserie/eris"

var (
	// ErrEmptyFacilitySet is returned when a nearest-facility search has no
	// facilities to choose from.
	ErrEmptyFacilitySet = eris.New("access: empty facility set")

	// ErrEmptyInput is returned when metrics or summaries are requested for
	// zero records.
	ErrEmptyInput = eris.New("access: empty input")
)
