package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MappingRepo interface {
	Get(ctx context.Context, key string) (*models.AccountMapping, error)
	All(ctx context.Context) ([]models.AccountMapping, error)
	Upsert(ctx context.Context, key, accountID string) error
}

type mappingRepo struct {
	db *gorm.DB
}

func NewMappingRepo(db *gorm.DB) MappingRepo {
	return &mappingRepo{db: db}
}

// Get returns nil without error when the key is unknown.
func (r *mappingRepo) Get(ctx context.Context, key string) (*models.AccountMapping, error) {
	var m models.AccountMapping
	err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) All(ctx context.Context) ([]models.AccountMapping, error) {
	var mappings []models.AccountMapping
	err := r.db.WithContext(ctx).Order("key ASC").Find(&mappings).Error
	return mappings, err
}

// Upsert writes the mapping; last write wins.
func (r *mappingRepo) Upsert(ctx context.Context, key, accountID string) error {
	m := models.AccountMapping{Key: key, AccountID: accountID, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "updated_at"}),
	}).Create(&m).Error
}
