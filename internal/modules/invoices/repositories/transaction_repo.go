package repositories

import (
	"context"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"gorm.io/gorm"
)

type TransactionRepo interface {
	Create(ctx context.Context, tx *models.Transaction) error
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error)
	ListAll(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	FindCandidates(ctx context.Context, vendorName, invoiceNumber string) ([]models.Transaction, error)
	Clear(ctx context.Context) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepo {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// filtered applies everything except pagination. Period must already be
// resolved into DateFrom/DateTo.
func (r *transactionRepo) filtered(ctx context.Context, filter models.TransactionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		searchPattern := "%" + s + "%"
		query = query.Where("vendor_name ILIKE ? OR invoice_number ILIKE ? OR file_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.DateFrom != nil {
		query = query.Where("processed_at >= ?", *filter.DateFrom)
	}

	if filter.DateTo != nil {
		query = query.Where("processed_at <= ?", *filter.DateTo)
	}

	if filter.MinAmount != nil {
		query = query.Where("total_amount >= ?", *filter.MinAmount)
	}

	if filter.MaxAmount != nil {
		query = query.Where("total_amount <= ?", *filter.MaxAmount)
	}

	return query
}

func (r *transactionRepo) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	query := r.filtered(ctx, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter.Normalize()
	err := query.Offset(filter.Offset()).Limit(filter.PageSize).
		Order("processed_at DESC").
		Find(&txs).Error

	return txs, total, err
}

func (r *transactionRepo) ListAll(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.filtered(ctx, filter).Order("processed_at DESC").Find(&txs).Error
	return txs, err
}

// FindCandidates narrows duplicate checks to rows with the same invoice number
// and case-insensitively equal vendor.
func (r *transactionRepo) FindCandidates(ctx context.Context, vendorName, invoiceNumber string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("LOWER(vendor_name) = LOWER(?) AND invoice_number = ?", vendorName, invoiceNumber).
		Order("processed_at DESC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Transaction{})
	return result.RowsAffected, result.Error
}
