package repositories

import (
	"context"

	"github.com/markedwards8480/invoice-processor/internal/modules/dashboard/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MonthRepo interface {
	// Upsert writes the months, replacing any stored month with the same key.
	Upsert(ctx context.Context, months []models.MonthRecord) error
	FindByKeys(ctx context.Context, keys []string) ([]models.MonthRecord, error)
	// List returns every month ordered by key.
	List(ctx context.Context) ([]models.MonthRecord, error)
	Clear(ctx context.Context) (int64, error)
}

type monthRepo struct {
	db *gorm.DB
}

func NewMonthRepo(db *gorm.DB) MonthRepo {
	return &monthRepo{db: db}
}

func (r *monthRepo) Upsert(ctx context.Context, months []models.MonthRecord) error {
	if len(months) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "month_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"month_num", "year_num", "label",
				"flight_hours", "fixed_services", "variable_ops", "variable_maint", "revenue", "totals",
				"source_file", "source_files", "updated_at",
			}),
		}).CreateInBatches(&months, 100).Error
	})
}

func (r *monthRepo) FindByKeys(ctx context.Context, keys []string) ([]models.MonthRecord, error) {
	var months []models.MonthRecord
	if len(keys) == 0 {
		return months, nil
	}
	err := r.db.WithContext(ctx).Where("month_key IN ?", keys).Find(&months).Error
	return months, err
}

func (r *monthRepo) List(ctx context.Context) ([]models.MonthRecord, error) {
	var months []models.MonthRecord
	err := r.db.WithContext(ctx).Order("month_key ASC").Find(&months).Error
	return months, err
}

func (r *monthRepo) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.MonthRecord{})
	return result.RowsAffected, result.Error
}
