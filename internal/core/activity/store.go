package activity

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Store persists activity entries.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	Prune(ctx context.Context, keep int) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Clear(ctx context.Context) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the activity_log table.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Insert(ctx context.Context, entry *Entry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

func (s *gormStore) Prune(ctx context.Context, keep int) error {
	err := s.db.WithContext(ctx).Exec(
		`DELETE FROM activity_log WHERE id NOT IN (
			SELECT id FROM activity_log ORDER BY timestamp DESC LIMIT ?
		)`, keep).Error
	if err != nil {
		return fmt.Errorf("failed to prune activity log: %w", err)
	}
	return nil
}

func (s *gormStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := s.db.WithContext(ctx).Model(&Entry{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []Entry
	if err := query.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}
	return entries, nil
}

func (s *gormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to clear activity log: %w", err)
	}
	return nil
}
