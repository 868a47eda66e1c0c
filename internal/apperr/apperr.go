// Package apperr defines the error kinds shared across the schedule engine.
// Callers classify failures with errors.Is; components wrap these sentinels
// with context via fmt.Errorf and %w.
package apperr

import "errors"

var (
	// ErrInvalidZone rejects a mutation whose zone is unknown or inactive.
	ErrInvalidZone = errors.New("invalid or inactive zone")

	// ErrDuplicateSchedule rejects a creation colliding with an active
	// schedule in the same zone.
	ErrDuplicateSchedule = errors.New("duplicate schedule")

	// ErrMalformedRecurrenceRule marks an unparseable recurring day or time.
	ErrMalformedRecurrenceRule = errors.New("malformed recurrence rule")

	// ErrNoOccurrenceFound marks a recurrence expansion that hit its
	// lookahead cap without producing an occurrence.
	ErrNoOccurrenceFound = errors.New("no occurrence found within lookahead window")

	// ErrNotFound marks a lookup or id-targeted mutation on a missing record.
	ErrNotFound = errors.New("not found")

	// ErrDeliveryFailed marks a failed single-user push delivery.
	ErrDeliveryFailed = errors.New("push delivery failed")

	// ErrStoreUnavailable marks a failing schedule-store operation.
	ErrStoreUnavailable = errors.New("schedule store unavailable")

	// ErrPermissionDenied rejects a mutation from a caller without the
	// admin role.
	ErrPermissionDenied = errors.New("permission denied")
)
