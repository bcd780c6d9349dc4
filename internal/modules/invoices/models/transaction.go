package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TransactionSuccess = "success"
	TransactionError   = "error"
)

// Transaction is one upload attempt recorded in the ledger. Rows are append-only.
type Transaction struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProcessedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_invoice_transactions_processed_at" json:"processedAt"`
	VendorName     string         `gorm:"type:varchar(255)" json:"vendorName"`
	InvoiceNumber  string         `gorm:"type:varchar(255);index:idx_invoice_transactions_invoice_number" json:"invoiceNumber"`
	InvoiceDate    string         `gorm:"type:varchar(32)" json:"invoiceDate"`
	TotalAmount    float64        `gorm:"type:numeric;not null;default:0" json:"totalAmount"`
	Currency       string         `gorm:"type:varchar(8)" json:"currency"`
	Status         string         `gorm:"type:varchar(20);not null" json:"status"` // 'success' or 'error'
	ExternalBillID *string        `gorm:"type:varchar(64)" json:"externalBillId,omitempty"`
	ErrorMessage   *string        `gorm:"type:text" json:"errorMessage,omitempty"`
	FileName       string         `gorm:"type:varchar(255)" json:"fileName"`
	ExtractedData  datatypes.JSON `gorm:"type:jsonb" json:"extractedData,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "invoice_transactions"
}

// BeforeCreate sets UUID and processed time before creating
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ProcessedAt.IsZero() {
		t.ProcessedAt = time.Now()
	}
	return nil
}

// TransactionFilter narrows the ledger view.
type TransactionFilter struct {
	Search    string
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Period    string
	MinAmount *float64
	MaxAmount *float64
	Page      int
	PageSize  int
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Normalize clamps paging values.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Offset returns the row offset of the current page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
