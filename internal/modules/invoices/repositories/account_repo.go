package repositories

import (
	"context"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"gorm.io/gorm"
)

type AccountRepo interface {
	ReplaceAll(ctx context.Context, accounts []models.CachedAccount) error
	List(ctx context.Context) ([]models.CachedAccount, error)
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepo {
	return &accountRepo{db: db}
}

// ReplaceAll swaps the whole cache inside one database transaction.
func (r *accountRepo) ReplaceAll(ctx context.Context, accounts []models.CachedAccount) error {
	now := time.Now()
	for i := range accounts {
		accounts[i].RefreshedAt = now
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CachedAccount{}).Error; err != nil {
			return err
		}
		if len(accounts) == 0 {
			return nil
		}
		return tx.CreateInBatches(accounts, 200).Error
	})
}

func (r *accountRepo) List(ctx context.Context) ([]models.CachedAccount, error) {
	var accounts []models.CachedAccount
	err := r.db.WithContext(ctx).Order("account_name ASC").Find(&accounts).Error
	return accounts, err
}
