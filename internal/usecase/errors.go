package usecase

import "errors"

var (
	// ErrExtractionFailed is returned when every extraction strategy failed for an identifier.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNoResults is returned when a search produced no usable entries.
	ErrNoResults = errors.New("no results")

	// ErrNoPlayableResult is returned when none of the tried search results could be extracted.
	ErrNoPlayableResult = errors.New("no playable results")
)
