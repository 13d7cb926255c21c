package idgen

import "errors"

// ErrInvalidID is returned when a NodeID or EdgeID fails validation,
// whether constructed from calendar fields or parsed from a string.
var ErrInvalidID = errors.New("invalid id")
