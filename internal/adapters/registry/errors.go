package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrWrite = errors.New("registry write failed")
	ErrFetch = errors.New("registry fetch failed")
)
