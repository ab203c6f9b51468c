package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every InvalidRecordError.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError reports a trip that violates a record invariant and
// must be rejected before evaluation.
type InvalidRecordError struct {
	TripID string
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %q: %s: %s", e.TripID, e.Field, e.Reason)
}

// Is lets errors.Is match ErrInvalidRecord.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
