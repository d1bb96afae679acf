package spacebio

import "errors"

var (
	// ErrEmptyQuery is returned when a question is blank or whitespace.
	ErrEmptyQuery = errors.New("spacebio: empty query")

	// ErrCorpusNotFound is returned when the configured corpus source does
	// not exist on disk.
	ErrCorpusNotFound = errors.New("spacebio: corpus not found")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("spacebio: invalid configuration")
)
