package history

import "errors"

// Sentinel kinds for history source errors.
var (
	ErrNotFound = errors.New("history record not found")
	ErrParse    = errors.New("malformed history record")
)
