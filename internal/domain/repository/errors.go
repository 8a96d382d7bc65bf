package repository

import "errors"

var (
	// ErrToolFailed is returned when the extraction tool exits unsuccessfully.
	ErrToolFailed = errors.New("extraction tool failed")

	// ErrMalformedOutput is returned when the tool output cannot be decoded.
	ErrMalformedOutput = errors.New("malformed extraction tool output")
)
