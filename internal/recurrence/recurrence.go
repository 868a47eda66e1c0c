// Package recurrence expands schedule definitions into concrete future
// occurrence instants and answers the cheaper "does this schedule occur on
// a given day" question used by the daily reminder.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/model"
)

// maxLookahead bounds the forward walk so a rule that can never match does
// not spin forever.
const maxLookahead = 3 * 365 * 24 * time.Hour

var weekdays = map[string]time.Weekday{
	model.DayMonday:    time.Monday,
	model.DayTuesday:   time.Tuesday,
	model.DayWednesday: time.Wednesday,
	model.DayThursday:  time.Thursday,
	model.DayFriday:    time.Friday,
	model.DaySaturday:  time.Saturday,
	model.DaySunday:    time.Sunday,
}

// WeekdayToken is the inverse of ParseWeekday.
func WeekdayToken(d time.Weekday) string {
	for token, day := range weekdays {
		if day == d {
			return token
		}
	}
	return ""
}

// ParseWeekday maps a weekday token such as "MONDAY" to its time.Weekday.
// Input is case-insensitive; anything outside the seven tokens fails with
// ErrMalformedRecurrenceRule.
func ParseWeekday(token string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", apperr.ErrMalformedRecurrenceRule, token)
	}
	return d, nil
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: bad clock %q", apperr.ErrMalformedRecurrenceRule, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: bad hour in %q", apperr.ErrMalformedRecurrenceRule, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: bad minute in %q", apperr.ErrMalformedRecurrenceRule, s)
	}
	return hour, minute, nil
}

// NextOccurrences computes up to count future instants for s, evaluated
// against now in loc.
//
// One-time schedules yield their stored instant unconditionally, past or
// future; callers filter. Recurring schedules are walked forward from the
// schedule's seed date one day at a time until the weekday matches, then in
// 7-day strides, keeping candidates strictly after now.
func NextOccurrences(s *model.Schedule, count int, now time.Time, loc *time.Location) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	if !s.IsRecurring {
		if s.CollectionDateTime == nil {
			return nil, fmt.Errorf("%w: one-time schedule %s has no collection instant", apperr.ErrMalformedRecurrenceRule, s.ID)
		}
		return []time.Time{*s.CollectionDateTime}, nil
	}

	day, err := ParseWeekday(s.RecurringDay)
	if err != nil {
		return nil, err
	}
	hour, minute, err := ParseClock(s.RecurringTime)
	if err != nil {
		return nil, err
	}

	seed := seedDate(s, now).In(loc)
	cursor := time.Date(seed.Year(), seed.Month(), seed.Day(), 0, 0, 0, 0, loc)
	// The cap is measured from evaluation time, not the seed: a seed years
	// in the past must still reach future occurrences.
	horizon := now.Add(maxLookahead)
	if cursor.After(horizon) {
		return nil, fmt.Errorf("%w: schedule %s", apperr.ErrNoOccurrenceFound, s.ID)
	}

	// Align to the first matching weekday, then stride a week at a time.
	for cursor.Weekday() != day {
		cursor = cursor.AddDate(0, 0, 1)
	}

	occurrences := make([]time.Time, 0, count)
	for len(occurrences) < count {
		if cursor.After(horizon) {
			return nil, fmt.Errorf("%w: schedule %s", apperr.ErrNoOccurrenceFound, s.ID)
		}
		candidate := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), hour, minute, 0, 0, loc)
		if candidate.After(now) {
			occurrences = append(occurrences, candidate)
		}
		cursor = cursor.AddDate(0, 0, 7)
	}
	return occurrences, nil
}

// OccursOn reports whether s has an occurrence on the calendar day of ref
// in loc. Recurring schedules match on weekday token, one-time schedules on
// calendar date. Malformed recurring rules simply do not match.
func OccursOn(s *model.Schedule, ref time.Time, loc *time.Location) bool {
	ref = ref.In(loc)
	if s.IsRecurring {
		day, err := ParseWeekday(s.RecurringDay)
		if err != nil {
			return false
		}
		return ref.Weekday() == day
	}
	if s.CollectionDateTime == nil {
		return false
	}
	at := s.CollectionDateTime.In(loc)
	return at.Year() == ref.Year() && at.YearDay() == ref.YearDay()
}

// seedDate picks the date the forward walk starts from: the stored instant
// when one exists, otherwise the record's creation time, otherwise now.
func seedDate(s *model.Schedule, now time.Time) time.Time {
	if s.CollectionDateTime != nil {
		return *s.CollectionDateTime
	}
	if !s.CreatedAt.IsZero() {
		return s.CreatedAt
	}
	return now
}
