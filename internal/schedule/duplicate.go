package schedule

import (
	"strings"
	"time"

	"waste-collection-backend/internal/model"
)

// oneTimeTolerance absorbs clock and serialization skew when comparing the
// instants of two one-time schedules.
const oneTimeTolerance = 60 * time.Second

// IsDuplicate reports whether the candidate collides with any of the given
// schedules. Callers pass the active schedules of the candidate's zone; the
// candidate itself (same id) is ignored.
func IsDuplicate(candidate *model.Schedule, existing []model.Schedule) bool {
	for i := range existing {
		if existing[i].ID == candidate.ID {
			continue
		}
		if collides(candidate, &existing[i]) {
			return true
		}
	}
	return false
}

// collides implements the pairwise collision rule: recurring schedules
// collide on equal day and time, one-time schedules collide when their
// instants are less than a minute apart. A recurring and a one-time
// schedule never collide.
func collides(a, b *model.Schedule) bool {
	if a.IsRecurring != b.IsRecurring {
		return false
	}

	if a.IsRecurring {
		return strings.EqualFold(a.RecurringDay, b.RecurringDay) &&
			a.RecurringTime == b.RecurringTime
	}

	if a.CollectionDateTime == nil || b.CollectionDateTime == nil {
		return false
	}
	diff := a.CollectionDateTime.Sub(*b.CollectionDateTime)
	if diff < 0 {
		diff = -diff
	}
	return diff < oneTimeTolerance
}
