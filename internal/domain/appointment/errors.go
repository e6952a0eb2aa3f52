package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("appointment: not found")
	ErrInvalidSlot        = errors.New("appointment: slot must start at least 20 minutes from now")
	ErrDuplicateRequest   = errors.New("appointment: duplicate request for this slot")
	ErrSlotConflict       = errors.New("appointment: doctor already has an accepted appointment in this slot")
	ErrMissingMeetingLink = errors.New("appointment: meeting link required and no provider configured")
	ErrMissingReason      = errors.New("appointment: rejection reason is required")
)

// InvalidTransitionError reports a lifecycle operation applied to an
// appointment in the wrong state.
type InvalidTransitionError struct {
	Current  string
	Required string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("appointment: invalid transition from %q, requires %q", e.Current, e.Required)
}
