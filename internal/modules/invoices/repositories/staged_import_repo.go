package repositories

import (
	"context"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StagedImportRepo interface {
	// CreateIfAbsent inserts the row unless the same path, size and
	// modification time is already staged.
	CreateIfAbsent(ctx context.Context, imp *models.StagedImport) (bool, error)
	ListUnfetched(ctx context.Context) ([]models.StagedImport, error)
	MarkFetched(ctx context.Context, id uuid.UUID) error
}

type stagedImportRepo struct {
	db *gorm.DB
}

func NewStagedImportRepo(db *gorm.DB) StagedImportRepo {
	return &stagedImportRepo{db: db}
}

func (r *stagedImportRepo) CreateIfAbsent(ctx context.Context, imp *models.StagedImport) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_path"}, {Name: "size"}, {Name: "mod_time"}},
		DoNothing: true,
	}).Create(imp)
	return result.RowsAffected > 0, result.Error
}

func (r *stagedImportRepo) ListUnfetched(ctx context.Context) ([]models.StagedImport, error) {
	var rows []models.StagedImport
	err := r.db.WithContext(ctx).
		Where("fetched_at IS NULL").
		Order("discovered_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *stagedImportRepo) MarkFetched(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.StagedImport{}).
		Where("id = ?", id).
		Update("fetched_at", time.Now()).Error
}
