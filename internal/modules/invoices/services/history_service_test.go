package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/export"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededHistory(t *testing.T) *fakeTransactionRepo {
	t.Helper()
	repo := &fakeTransactionRepo{}
	billID := "B-1"
	failure := "Invalid bill data: Invalid date"
	base := time.Date(2024, 9, 10, 14, 30, 0, 0, time.UTC)

	rows := []models.Transaction{
		{ProcessedAt: base, VendorName: "ACME", InvoiceNumber: "INV-1", InvoiceDate: "2024-09-01", TotalAmount: 113, Currency: "CAD",
			Status: models.TransactionSuccess, ExternalBillID: &billID},
		{ProcessedAt: base.Add(time.Hour), VendorName: "Globex, Inc", InvoiceNumber: "G-7", InvoiceDate: "2024-09-02", TotalAmount: 9.5, Currency: "USD",
			Status: models.TransactionError, ErrorMessage: &failure},
		{ProcessedAt: base.AddDate(0, -2, 0), VendorName: "Initech", InvoiceNumber: "X-1", TotalAmount: 1, Currency: "CAD",
			Status: models.TransactionSuccess},
	}
	for i := range rows {
		require.NoError(t, repo.Create(context.Background(), &rows[i]))
	}
	return repo
}

func TestHistory_ExportCSV(t *testing.T) {
	repo := seededHistory(t)
	svc := NewHistoryService(repo, export.NewService(), &fakeRecorder{})

	res, err := svc.Export(context.Background(), models.TransactionFilter{PageSize: 1}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", res.ContentType)

	records, err := csv.NewReader(bytes.NewReader(res.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus every row, ignoring page size")
	assert.Equal(t, []string{"Date", "Time", "Vendor", "Invoice#", "InvoiceDate", "Amount", "Currency", "Status", "ExternalBillId", "Error"}, records[0])

	assert.Equal(t, []string{"2024-09-10", "15:30:00", "Globex, Inc", "G-7", "2024-09-02", "9.50", "USD", "error", "", "Invalid bill data: Invalid date"}, records[1])
	assert.Equal(t, []string{"2024-09-10", "14:30:00", "ACME", "INV-1", "2024-09-01", "113.00", "CAD", "success", "B-1", ""}, records[2])
}

func TestHistory_ExportFilteredByStatus(t *testing.T) {
	svc := NewHistoryService(seededHistory(t), export.NewService(), &fakeRecorder{})

	res, err := svc.Export(context.Background(), models.TransactionFilter{Status: models.TransactionError}, export.FormatCSV)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(res.Data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHistory_ExportXLSX(t *testing.T) {
	svc := NewHistoryService(seededHistory(t), export.NewService(), &fakeRecorder{})

	res, err := svc.Export(context.Background(), models.TransactionFilter{}, export.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", res.Extension)
	assert.NotEmpty(t, res.Data)
}

func TestHistory_ListResolvesPeriod(t *testing.T) {
	svc := NewHistoryService(seededHistory(t), export.NewService(), &fakeRecorder{})
	svc.now = func() time.Time { return time.Date(2024, 9, 20, 9, 0, 0, 0, time.UTC) }

	page, err := svc.List(context.Background(), models.TransactionFilter{Period: "this_month"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, models.DefaultPageSize, page.PageSize)
	assert.Equal(t, "G-7", page.Items[0].InvoiceNumber, "newest first")

	_, err = svc.List(context.Background(), models.TransactionFilter{Period: "someday"})
	assert.ErrorIs(t, err, ErrValidationFailure)
}

func TestHistory_ListPaginates(t *testing.T) {
	svc := NewHistoryService(seededHistory(t), export.NewService(), &fakeRecorder{})

	page, err := svc.List(context.Background(), models.TransactionFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "X-1", page.Items[0].InvoiceNumber)
}

func TestHistory_Clear(t *testing.T) {
	repo := seededHistory(t)
	svc := NewHistoryService(repo, export.NewService(), &fakeRecorder{})

	n, err := svc.Clear(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Empty(t, repo.rows)
}
