package services

import (
	"context"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
)

// FindDuplicate returns the first prior transaction with the same vendor
// (case-insensitive), the same invoice number and an amount within one cent.
func FindDuplicate(inv *models.ExtractedInvoice, history []models.Transaction) *models.Transaction {
	if inv == nil || inv.InvoiceNumber == "" {
		return nil
	}
	vendor := strings.ToLower(inv.VendorName)
	total := inv.TotalValue()

	for i := range history {
		t := &history[i]
		if strings.ToLower(t.VendorName) == vendor &&
			t.InvoiceNumber == inv.InvoiceNumber &&
			models.SameAmount(t.TotalAmount, total) {
			return t
		}
	}
	return nil
}

// DuplicateDetector checks extracted invoices against the ledger.
type DuplicateDetector struct {
	transactions repositories.TransactionRepo
}

func NewDuplicateDetector(transactions repositories.TransactionRepo) *DuplicateDetector {
	return &DuplicateDetector{transactions: transactions}
}

// Check returns the matching prior transaction, or nil.
func (d *DuplicateDetector) Check(ctx context.Context, inv *models.ExtractedInvoice) (*models.Transaction, error) {
	if inv == nil || inv.InvoiceNumber == "" {
		return nil, nil
	}
	history, err := d.transactions.FindCandidates(ctx, inv.VendorName, inv.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	return FindDuplicate(inv, history), nil
}
