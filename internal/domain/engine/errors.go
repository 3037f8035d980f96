package engine

import "errors"

// Sentinel kinds for game processing errors.
var (
	ErrDuplicatePlayer = errors.New("duplicate player in game roster")
)
