package models

import "time"

// AccountMapping maps a keyword, or vendor::keyword, to a GL account.
type AccountMapping struct {
	Key       string    `gorm:"primaryKey;type:varchar(512)" json:"key"`
	AccountID string    `gorm:"type:varchar(64);not null" json:"accountId"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (AccountMapping) TableName() string {
	return "account_mappings"
}

// CachedAccount is one row of the chart-of-accounts cache.
type CachedAccount struct {
	AccountID   string    `gorm:"primaryKey;type:varchar(64)" json:"account_id"`
	AccountName string    `gorm:"type:varchar(255);not null" json:"account_name"`
	AccountType string    `gorm:"type:varchar(64)" json:"account_type"`
	RefreshedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"refreshed_at"`
}

func (CachedAccount) TableName() string {
	return "cached_accounts"
}
