package services

import (
	"context"
	"fmt"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/analytics"
	"github.com/markedwards8480/invoice-processor/internal/core/export"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
)

// ExportHeaders are the ledger export columns, in order.
var ExportHeaders = []string{
	"Date", "Time", "Vendor", "Invoice#", "InvoiceDate", "Amount", "Currency", "Status", "ExternalBillId", "Error",
}

// TransactionPage is one page of the ledger view.
type TransactionPage struct {
	Items    []models.Transaction `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

type HistoryService struct {
	transactions repositories.TransactionRepo
	exporter     *export.Service
	activity     ActivityRecorder
	now          func() time.Time
}

func NewHistoryService(transactions repositories.TransactionRepo, exporter *export.Service, recorder ActivityRecorder) *HistoryService {
	return &HistoryService{
		transactions: transactions,
		exporter:     exporter,
		activity:     recorder,
		now:          time.Now,
	}
}

// resolve turns a period preset into an explicit date range. An explicit
// range given alongside a period wins.
func (s *HistoryService) resolve(filter models.TransactionFilter) (models.TransactionFilter, error) {
	if filter.Period != "" && filter.DateFrom == nil && filter.DateTo == nil {
		r, err := analytics.ResolvePeriod(filter.Period, s.now())
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrValidationFailure, err)
		}
		filter.DateFrom, filter.DateTo = &r.Start, &r.End
	}
	filter.Normalize()
	return filter, nil
}

// List returns the requested page, newest first.
func (s *HistoryService) List(ctx context.Context, filter models.TransactionFilter) (*TransactionPage, error) {
	filter, err := s.resolve(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &TransactionPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Export renders the whole filtered view, ignoring pagination.
func (s *HistoryService) Export(ctx context.Context, filter models.TransactionFilter, format export.ExportFormat) (*export.Result, error) {
	filter, err := s.resolve(filter)
	if err != nil {
		return nil, err
	}

	items, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return s.exporter.Export(&export.ExportData{
		Title:     "Invoice Transactions",
		CreatedAt: s.now(),
		Headers:   ExportHeaders,
		Rows:      TransactionRows(items),
		Style:     export.DefaultStyle(),
	}, format)
}

// TransactionRows converts ledger rows into export rows.
func TransactionRows(items []models.Transaction) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, t := range items {
		rows = append(rows, []interface{}{
			t.ProcessedAt.Format("2006-01-02"),
			t.ProcessedAt.Format("15:04:05"),
			t.VendorName,
			t.InvoiceNumber,
			t.InvoiceDate,
			t.TotalAmount,
			t.Currency,
			t.Status,
			t.ExternalBillID,
			t.ErrorMessage,
		})
	}
	return rows
}

// Clear deletes the whole ledger.
func (s *HistoryService) Clear(ctx context.Context) (int64, error) {
	n, err := s.transactions.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear transactions: %w", err)
	}
	s.activity.Record(ctx, activity.TypeInfo, fmt.Sprintf("Transaction history cleared (%d rows)", n), nil)
	return n, nil
}
