package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waste-collection-backend/internal/apperr"
	"waste-collection-backend/internal/model"
)

// ScheduleStore is the durable home of schedule records. Instants are stored
// in UTC so persisted ordering matches chronological ordering.
type ScheduleStore interface {
	Put(ctx context.Context, s *model.Schedule) error
	Get(ctx context.Context, id string) (*model.Schedule, error)
	Delete(ctx context.Context, id string) error
	QueryActiveByZone(ctx context.Context, zoneID string) ([]model.Schedule, error)
	QueryActiveRecurringByZone(ctx context.Context, zoneID string) ([]model.Schedule, error)
	QueryActiveByRecurringDay(ctx context.Context, day string) ([]model.Schedule, error)
	QueryActiveOneTimeOnDate(ctx context.Context, day time.Time, loc *time.Location) ([]model.Schedule, error)
}

// ZoneDirectory resolves zone ids to their display name and active flag.
type ZoneDirectory interface {
	ResolveZone(ctx context.Context, zoneID string) (*model.Zone, error)
}

// RecipientDirectory resolves the registered device tokens for a zone or a
// single user.
type RecipientDirectory interface {
	TokensForZone(ctx context.Context, zoneID string) ([]model.DeviceToken, error)
	TokensForUser(ctx context.Context, userID string) ([]model.DeviceToken, error)
}

// TokenStore manages device-token registration and pruning.
type TokenStore interface {
	SaveToken(ctx context.Context, token *model.DeviceToken) error
	DeleteToken(ctx context.Context, endpoint string) error
}

// Store aggregates all database operations behind one implementation.
type Store interface {
	ScheduleStore
	ZoneDirectory
	RecipientDirectory
	TokenStore

	// DB exposes the underlying handle for read-side aggregation queries.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Put inserts or replaces a schedule record by id.
func (s *gormStore) Put(ctx context.Context, record *model.Schedule) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"zone_id", "zone_name", "waste_type", "is_recurring", "recurring_day",
			"recurring_time", "collection_date_time", "is_active", "notes", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("%w: put schedule %s: %v", apperr.ErrStoreUnavailable, record.ID, err)
	}
	return nil
}

// Get returns the active schedule with the given id. Inactive records are
// invisible here, same as in every query method.
func (s *gormStore) Get(ctx context.Context, id string) (*model.Schedule, error) {
	var record model.Schedule
	err := s.db.WithContext(ctx).First(&record, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: schedule %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get schedule %s: %v", apperr.ErrStoreUnavailable, id, err)
	}
	return &record, nil
}

func (s *gormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Schedule{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("%w: delete schedule %s: %v", apperr.ErrStoreUnavailable, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *gormStore) QueryActiveByZone(ctx context.Context, zoneID string) ([]model.Schedule, error) {
	var records []model.Schedule
	err := s.db.WithContext(ctx).
		Where("zone_id = ? AND is_active = ?", zoneID, true).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query schedules for zone %s: %v", apperr.ErrStoreUnavailable, zoneID, err)
	}
	return records, nil
}

func (s *gormStore) QueryActiveRecurringByZone(ctx context.Context, zoneID string) ([]model.Schedule, error) {
	var records []model.Schedule
	err := s.db.WithContext(ctx).
		Where("zone_id = ? AND is_active = ? AND is_recurring = ?", zoneID, true, true).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query recurring schedules for zone %s: %v", apperr.ErrStoreUnavailable, zoneID, err)
	}
	return records, nil
}

func (s *gormStore) QueryActiveByRecurringDay(ctx context.Context, day string) ([]model.Schedule, error) {
	var records []model.Schedule
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND is_recurring = ? AND recurring_day = ?", true, true, day).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query schedules for day %s: %v", apperr.ErrStoreUnavailable, day, err)
	}
	return records, nil
}

// QueryActiveOneTimeOnDate returns active one-time schedules whose instant
// falls on the calendar day of the given reference time in loc.
func (s *gormStore) QueryActiveOneTimeOnDate(ctx context.Context, day time.Time, loc *time.Location) ([]model.Schedule, error) {
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	var records []model.Schedule
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND is_recurring = ? AND collection_date_time >= ? AND collection_date_time < ?",
			true, false, start.UTC(), end.UTC()).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query one-time schedules on %s: %v",
			apperr.ErrStoreUnavailable, start.Format("2006-01-02"), err)
	}
	return records, nil
}

func (s *gormStore) ResolveZone(ctx context.Context, zoneID string) (*model.Zone, error) {
	var zone model.Zone
	err := s.db.WithContext(ctx).First(&zone, "id = ?", zoneID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: zone %s", apperr.ErrNotFound, zoneID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve zone %s: %v", apperr.ErrStoreUnavailable, zoneID, err)
	}
	return &zone, nil
}

func (s *gormStore) TokensForZone(ctx context.Context, zoneID string) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	err := s.db.WithContext(ctx).Where("zone_id = ?", zoneID).Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("%w: tokens for zone %s: %v", apperr.ErrStoreUnavailable, zoneID, err)
	}
	return tokens, nil
}

func (s *gormStore) TokensForUser(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	var tokens []model.DeviceToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("%w: tokens for user %s: %v", apperr.ErrStoreUnavailable, userID, err)
	}
	return tokens, nil
}

// SaveToken inserts or refreshes a registration keyed by endpoint.
func (s *gormStore) SaveToken(ctx context.Context, token *model.DeviceToken) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id", "zone_id"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("%w: save token: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *gormStore) DeleteToken(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Delete(&model.DeviceToken{Endpoint: endpoint}).Error
	if err != nil {
		return fmt.Errorf("%w: delete token: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}
