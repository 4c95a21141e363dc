package charging

import "errors"

var (
	// ErrInvalidRecord rejects a charge row with a malformed date or a
	// non-positive energy amount.
	ErrInvalidRecord = errors.New("charging: invalid record")
	// ErrEmptyLog indicates there is no record to delete.
	ErrEmptyLog = errors.New("charging: charge log is empty")
)
