// Package schedule holds the orchestration logic for waste-collection
// schedules: validation, duplicate detection, mutation state transitions,
// recurrence expansion, and the notification triggers tied to each of them.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/model"
	"waste-collection-backend/internal/notification"
	"waste-collection-backend/internal/recurrence"
	"waste-collection-backend/internal/store"
)

const (
	// defaultUpcomingLimit caps ListUpcoming when the caller passes none.
	defaultUpcomingLimit = 10
	// occurrencesPerSchedule bounds recurrence expansion per schedule when
	// building the upcoming view.
	occurrencesPerSchedule = 4
)

// Actor identifies the caller of a mutation. The surrounding deployment's
// authorization layer decides IsAdmin; this core only checks it.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Dispatcher is the notification fan-out the orchestrator fires on each
// mutation. Implementations never fail the caller.
type Dispatcher interface {
	NotifyZone(ctx context.Context, env notification.Envelope) int
}

// Input carries the caller-settable fields of a schedule.
type Input struct {
	ZoneID             string
	WasteType          string
	IsRecurring        bool
	RecurringDay       string
	RecurringTime      string
	CollectionDateTime *time.Time
	Notes              string
}

// Occurrence is one expanded future collection instant. It is a virtual
// view: multiple occurrences map back to one stored schedule.
type Occurrence struct {
	ScheduleID string    `json:"scheduleId"`
	ZoneID     string    `json:"zoneId"`
	ZoneName   string    `json:"zoneName"`
	WasteType  string    `json:"wasteType"`
	At         time.Time `json:"at"`
	Notes      string    `json:"notes,omitempty"`
}

// Service is the sole mutator of schedule records.
type Service struct {
	store      store.ScheduleStore
	zones      store.ZoneDirectory
	dispatcher Dispatcher
	loc        *time.Location
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates the schedule orchestrator.
func NewService(st store.ScheduleStore, zones store.ZoneDirectory, dispatcher Dispatcher, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		store:      st,
		zones:      zones,
		dispatcher: dispatcher,
		loc:        loc,
		log:        log.With().Str("component", "schedule").Logger(),
		now:        time.Now,
	}
}

// Create validates, duplicate-checks, persists and announces a new schedule.
func (s *Service) Create(ctx context.Context, actor Actor, input Input) (*model.Schedule, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: create schedule", apperr.ErrPermissionDenied)
	}

	zone, err := s.resolveActiveZone(ctx, input.ZoneID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	// Duplicate detection fails open: an unreachable store must not block
	// schedule creation.
	existing, err := s.store.QueryActiveByZone(ctx, input.ZoneID)
	if err != nil {
		s.log.Warn().Err(err).Str("zone", input.ZoneID).Msg("duplicate check degraded, allowing creation")
	} else {
		candidate := recordFromInput(&input, zone.Name)
		if IsDuplicate(candidate, existing) {
			return nil, fmt.Errorf("%w: zone %s", apperr.ErrDuplicateSchedule, input.ZoneID)
		}
	}

	now := s.now().UTC()
	record := recordFromInput(&input, zone.Name)
	record.ID = uuid.NewString()
	record.IsActive = true
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.store.Put(ctx, record); err != nil {
		return nil, err
	}

	s.dispatcher.NotifyZone(ctx, s.envelope(record, "New Collection Schedule",
		fmt.Sprintf("A %s collection has been scheduled for %s %s.", record.WasteType, record.ZoneName, s.describeWhen(record)),
		"schedule_created"))
	return record, nil
}

// Update rewrites an existing schedule. It re-validates the zone but, unlike
// Create, runs no duplicate check: updates are treated as corrections.
func (s *Service) Update(ctx context.Context, actor Actor, id string, input Input) (*model.Schedule, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: update schedule", apperr.ErrPermissionDenied)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	zone, err := s.resolveActiveZone(ctx, input.ZoneID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	record := recordFromInput(&input, zone.Name)
	record.ID = current.ID
	record.IsActive = current.IsActive
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = s.now().UTC()

	if err := s.store.Put(ctx, record); err != nil {
		return nil, err
	}

	s.dispatcher.NotifyZone(ctx, s.envelope(record, "Collection Schedule Updated",
		fmt.Sprintf("The %s collection schedule for %s was updated: now %s.", record.WasteType, record.ZoneName, s.describeWhen(record)),
		"schedule_updated"))
	return record, nil
}

// Delete removes a schedule and announces the cancellation. Zone and waste
// type are captured before removal so the notice can still name them.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin {
		return fmt.Errorf("%w: delete schedule", apperr.ErrPermissionDenied)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.dispatcher.NotifyZone(ctx, s.envelope(current, "Collection Schedule Cancelled",
		fmt.Sprintf("The %s collection %s for %s has been cancelled.", current.WasteType, s.describeWhen(current), current.ZoneName),
		"schedule_cancelled"))
	return nil
}

// GetByID returns one active schedule.
func (s *Service) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	return s.store.Get(ctx, id)
}

// ListByZone returns the active schedules of a zone.
func (s *Service) ListByZone(ctx context.Context, zoneID string) ([]model.Schedule, error) {
	return s.store.QueryActiveByZone(ctx, zoneID)
}

// ListRecurring returns the active recurring schedules of a zone.
func (s *Service) ListRecurring(ctx context.Context, zoneID string) ([]model.Schedule, error) {
	return s.store.QueryActiveRecurringByZone(ctx, zoneID)
}

// ListUpcoming expands every active schedule of the zone into its next
// occurrences, merged chronologically and truncated to limit. Schedules
// whose stored rule no longer parses are skipped, not fatal.
func (s *Service) ListUpcoming(ctx context.Context, zoneID string, limit int) ([]Occurrence, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}

	records, err := s.store.QueryActiveByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var upcoming []Occurrence
	for i := range records {
		record := &records[i]
		instants, err := recurrence.NextOccurrences(record, occurrencesPerSchedule, now, s.loc)
		if err != nil {
			s.log.Warn().Err(err).Str("schedule", record.ID).Msg("skipping unexpandable schedule")
			continue
		}
		for _, at := range instants {
			if !at.After(now) {
				continue
			}
			upcoming = append(upcoming, Occurrence{
				ScheduleID: record.ID,
				ZoneID:     record.ZoneID,
				ZoneName:   record.ZoneName,
				WasteType:  record.WasteType,
				At:         at,
				Notes:      record.Notes,
			})
		}
	}

	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].At.Before(upcoming[j].At) })
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// NotifyTodaysSchedules sends one "today" notice per schedule occurring on
// the current calendar day. It never fails its caller: store outages and
// per-schedule problems are logged and skipped, which makes it safe inside
// a fire-and-forget cron trigger. Returns the number of schedules announced.
func (s *Service) NotifyTodaysSchedules(ctx context.Context) int {
	today := s.now().In(s.loc)

	var todays []model.Schedule
	recurring, err := s.store.QueryActiveByRecurringDay(ctx, recurrence.WeekdayToken(today.Weekday()))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query recurring schedules for today")
	} else {
		todays = append(todays, recurring...)
	}

	oneTime, err := s.store.QueryActiveOneTimeOnDate(ctx, today, s.loc)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query one-time schedules for today")
	} else {
		todays = append(todays, oneTime...)
	}

	announced := 0
	for i := range todays {
		if err := ctx.Err(); err != nil {
			s.log.Warn().Err(err).
				Int("announced", announced).
				Int("pending", len(todays)-announced).
				Msg("today reminder aborted")
			break
		}
		record := &todays[i]
		delivered := s.dispatcher.NotifyZone(ctx, s.envelope(record, "Collection Today",
			fmt.Sprintf("%s collection in %s today%s.", record.WasteType, record.ZoneName, s.describeTime(record)),
			"collection_today"))
		s.log.Info().
			Str("schedule", record.ID).
			Str("zone", record.ZoneID).
			Int("delivered", delivered).
			Msg("today reminder dispatched")
		announced++
	}
	return announced
}

// resolveActiveZone maps unknown and inactive zones to ErrInvalidZone.
func (s *Service) resolveActiveZone(ctx context.Context, zoneID string) (*model.Zone, error) {
	zone, err := s.zones.ResolveZone(ctx, zoneID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidZone, zoneID)
		}
		return nil, err
	}
	if !zone.IsActive {
		return nil, fmt.Errorf("%w: zone %s is inactive", apperr.ErrInvalidZone, zoneID)
	}
	return zone, nil
}

// validateInput checks the recurrence rule or the one-time instant up front
// so malformed records never reach the store.
func validateInput(input *Input) error {
	if input.IsRecurring {
		if _, err := recurrence.ParseWeekday(input.RecurringDay); err != nil {
			return err
		}
		if _, _, err := recurrence.ParseClock(input.RecurringTime); err != nil {
			return err
		}
		return nil
	}
	if input.CollectionDateTime == nil {
		return fmt.Errorf("%w: one-time schedule requires a collection instant", apperr.ErrMalformedRecurrenceRule)
	}
	return nil
}

// recordFromInput normalizes caller input into a store record. Instants are
// normalized to UTC, weekday tokens to upper case.
func recordFromInput(input *Input, zoneName string) *model.Schedule {
	record := &model.Schedule{
		ZoneID:      input.ZoneID,
		ZoneName:    zoneName,
		WasteType:   input.WasteType,
		IsRecurring: input.IsRecurring,
		Notes:       input.Notes,
	}
	if input.IsRecurring {
		record.RecurringDay = strings.ToUpper(strings.TrimSpace(input.RecurringDay))
		record.RecurringTime = strings.TrimSpace(input.RecurringTime)
	} else if input.CollectionDateTime != nil {
		utc := input.CollectionDateTime.UTC()
		record.CollectionDateTime = &utc
	}
	return record
}

func (s *Service) envelope(record *model.Schedule, title, body, kind string) notification.Envelope {
	if record.Notes != "" {
		body = body + " Note: " + record.Notes
	}
	return notification.Envelope{
		ZoneID: record.ZoneID,
		Title:  title,
		Body:   body,
		Metadata: map[string]string{
			"type":       kind,
			"scheduleId": record.ID,
			"zoneId":     record.ZoneID,
		},
	}
}

// describeWhen renders the schedule's timing for notification bodies.
func (s *Service) describeWhen(record *model.Schedule) string {
	if record.IsRecurring {
		return fmt.Sprintf("every %s at %s", dayLabel(record.RecurringDay), record.RecurringTime)
	}
	if record.CollectionDateTime == nil {
		return ""
	}
	return "on " + record.CollectionDateTime.In(s.loc).Format("Jan 2, 2006 at 15:04")
}

// dayLabel turns "MONDAY" into "Monday" for message bodies.
func dayLabel(token string) string {
	token = strings.ToLower(token)
	if token == "" {
		return token
	}
	return strings.ToUpper(token[:1]) + token[1:]
}

// describeTime renders just the clock part for same-day reminders.
func (s *Service) describeTime(record *model.Schedule) string {
	if record.IsRecurring {
		return " at " + record.RecurringTime
	}
	if record.CollectionDateTime == nil {
		return ""
	}
	return " at " + record.CollectionDateTime.In(s.loc).Format("15:04")
}
