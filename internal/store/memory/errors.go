package memory

import "errors"

// ErrReadFailed simulates a backing-store read failure.
var ErrReadFailed = errors.New("memory store: read failed")
