package services

import (
	"context"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDuplicate(t *testing.T) {
	history := []models.Transaction{
		{VendorName: "ACME", InvoiceNumber: "INV-1", TotalAmount: 100.00, Status: models.TransactionError},
		{VendorName: "Globex", InvoiceNumber: "INV-2", TotalAmount: 50},
	}

	tests := []struct {
		name  string
		inv   models.ExtractedInvoice
		found bool
	}{
		{"same invoice within a cent", models.ExtractedInvoice{VendorName: "acme", InvoiceNumber: "INV-1", Total: models.Float(100.005)}, true},
		{"amount differs", models.ExtractedInvoice{VendorName: "acme", InvoiceNumber: "INV-1", Total: models.Float(100.02)}, false},
		{"number is case sensitive", models.ExtractedInvoice{VendorName: "ACME", InvoiceNumber: "inv-1", Total: models.Float(100)}, false},
		{"other vendor", models.ExtractedInvoice{VendorName: "Initech", InvoiceNumber: "INV-1", Total: models.Float(100)}, false},
		{"no invoice number", models.ExtractedInvoice{VendorName: "ACME", Total: models.Float(100)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindDuplicate(&tt.inv, history)
			assert.Equal(t, tt.found, got != nil)
		})
	}
}

func TestDuplicateDetector_Check(t *testing.T) {
	repo := &fakeTransactionRepo{}
	require.NoError(t, repo.Create(context.Background(), &models.Transaction{
		VendorName: "ACME", InvoiceNumber: "INV-9", TotalAmount: 42.5, Status: models.TransactionSuccess,
	}))
	d := NewDuplicateDetector(repo)

	dup, err := d.Check(context.Background(), &models.ExtractedInvoice{VendorName: "Acme", InvoiceNumber: "INV-9", Total: models.Float(42.5)})
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, repo.rows[0].ID, dup.ID)

	dup, err = d.Check(context.Background(), &models.ExtractedInvoice{VendorName: "Acme", InvoiceNumber: "INV-10", Total: models.Float(42.5)})
	require.NoError(t, err)
	assert.Nil(t, dup)
}
