package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadHarness struct {
	queue        *QueueService
	contacts     *fakeContacts
	bills        *fakeBills
	refresher    *fakeRefresher
	settings     *fakeSettingsRepo
	transactions *fakeTransactionRepo
	mappings     *fakeMappingRepo
	recorder     *fakeRecorder
	svc          *UploadService
}

func newUploadHarness(t *testing.T, mode VendorMode) *uploadHarness {
	t.Helper()
	h := &uploadHarness{
		queue: NewQueueService(0),
		contacts: &fakeContacts{contacts: []zoho.Contact{
			{ContactID: "V-ACME", ContactName: "ACME SUPPLIES", ContactType: "vendor"},
		}},
		bills:        &fakeBills{},
		refresher:    &fakeRefresher{token: "1000.new-token"},
		settings:     &fakeSettingsRepo{values: completeSettings()},
		transactions: &fakeTransactionRepo{},
		mappings:     &fakeMappingRepo{},
		recorder:     &fakeRecorder{},
	}
	settings := NewSettingsService(h.settings, h.refresher, zoho.DefaultTokenURL, h.recorder)
	suggester := NewAccountSuggester(h.mappings, &fakeAccountRepo{accounts: chart})
	h.svc = NewUploadService(h.queue, settings, h.bills, NewVendorResolver(h.contacts, mode), suggester,
		h.transactions, nil, h.recorder, models.DefaultCurrency)
	return h
}

func sampleInvoice(vendor string) *models.ExtractedInvoice {
	return &models.ExtractedInvoice{
		VendorName:    vendor,
		InvoiceNumber: "INV-1001",
		InvoiceDate:   "2024-09-01",
		Currency:      "CAD",
		Subtotal:      models.Float(100),
		Tax:           models.Float(13),
		Total:         models.Float(113),
		LineItems: []models.LineItem{
			{Description: "Widget", Quantity: models.Float(2), Rate: models.Float(30), AccountID: "A-COGS"},
			{Description: "Freight", Quantity: models.Float(1), Rate: models.Float(40), AccountID: "A-SHIP"},
		},
	}
}

func (h *uploadHarness) addExtracted(t *testing.T, inv *models.ExtractedInvoice) string {
	t.Helper()
	item, err := h.queue.Add(NewItem{FileName: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	_, err = h.queue.Update(item.ID, func(q *models.QueueItem) error {
		q.Extracted = inv
		return q.Transition(models.StatusExtracted)
	})
	require.NoError(t, err)
	return item.ID
}

func TestBuildBill(t *testing.T) {
	bill := BuildBill(sampleInvoice("Acme"), "V1", "CAD")

	assert.Equal(t, "V1", bill.VendorID)
	assert.Equal(t, "INV-1001", bill.BillNumber)
	assert.Equal(t, "2024-09-01", bill.DueDate, "due date defaults to invoice date")
	assert.Equal(t, 13.0, bill.Adjustment)
	assert.Equal(t, "Tax", bill.AdjustmentDescription)
	require.Len(t, bill.LineItems, 2)
	assert.Equal(t, 0, bill.LineItems[0].ItemOrder)
	assert.Equal(t, 1, bill.LineItems[1].ItemOrder)
	assert.Equal(t, 30.0, bill.LineItems[0].Rate)
	assert.Equal(t, 2.0, bill.LineItems[0].Quantity)

	noTax := sampleInvoice("Acme")
	noTax.Tax = nil
	assert.Zero(t, BuildBill(noTax, "V1", "CAD").Adjustment)
}

func TestUpload_Success(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, "B-1", res.ExternalBillID)
	assert.Equal(t, "V-ACME", res.VendorID)

	success := h.transactions.withStatus(models.TransactionSuccess)
	require.Len(t, success, 1)
	require.NotNil(t, success[0].ExternalBillID)
	assert.Equal(t, "B-1", *success[0].ExternalBillID)
	assert.Equal(t, 113.0, success[0].TotalAmount)
	assert.Len(t, h.transactions.rows, 1)

	assert.Equal(t, []string{"B-1"}, h.bills.attached)
	assert.Equal(t, "A-COGS", h.mappings.values["acme supplies::widget"])

	item, err := h.queue.Get(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, item.Status)
}

func TestUpload_SuccessIsTerminal(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.NoError(t, err)

	_, err = h.svc.Upload(context.Background(), id, UploadOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, h.bills.calls)
	assert.Len(t, h.transactions.rows, 1)
}

func TestUpload_RequiresExtraction(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	item, err := h.queue.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("x")})
	require.NoError(t, err)

	_, err = h.svc.Upload(context.Background(), item.ID, UploadOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, h.bills.calls)
}

func TestUpload_UnknownItem(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	_, err := h.svc.Upload(context.Background(), "missing", UploadOptions{})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpload_ExplicitVendorSkipsResolution(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	id := h.addExtracted(t, sampleInvoice("Unknown Vendor"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{VendorID: "V-42"})
	require.NoError(t, err)
	assert.Equal(t, "V-42", res.VendorID)
	assert.Zero(t, h.contacts.searches)
	assert.Equal(t, "V-42", h.bills.bills[0].VendorID)
}

func TestUpload_RefreshesOnceOnUnauthorized(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.bills.createErrs = []error{unauthorized()}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)

	assert.Equal(t, 1, h.refresher.calls)
	assert.Equal(t, 2, h.bills.calls)
	assert.Equal(t, []string{"1000.old-token", "1000.new-token"}, h.bills.tokens)
	assert.Equal(t, "1000.new-token", h.settings.values[models.SettingAccessToken])
	assert.Len(t, h.transactions.withStatus(models.TransactionSuccess), 1)
}

func TestUpload_SecondUnauthorizedIsFinal(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.bills.createErrs = []error{unauthorized(), unauthorized(), nil}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, "Access token expired. Please generate a new token in Settings.", res.Error)

	assert.Equal(t, 1, h.refresher.calls)
	assert.Equal(t, 2, h.bills.calls)

	failed := h.transactions.withStatus(models.TransactionError)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Nil(t, failed[0].ExternalBillID)
}

func TestUpload_RefreshSharedWithVendorLookup(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.contacts.unauthorized = 1
	h.bills.createErrs = []error{unauthorized()}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.Equal(t, 1, h.refresher.calls)
	assert.Equal(t, 1, h.bills.calls)
	assert.Equal(t, "1000.new-token", h.contacts.tokens[len(h.contacts.tokens)-1])
}

func TestUpload_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		target  error
		message string
	}{
		{"conflict", &zoho.APIError{StatusCode: http.StatusConflict, Message: "bill number already exists"}, ErrDuplicateDetected,
			"Duplicate invoice detected: bill number already exists"},
		{"bad request", &zoho.APIError{StatusCode: http.StatusBadRequest, Message: "Invalid date"}, ErrValidationFailure,
			"Invalid bill data: Invalid date"},
		{"server error", &zoho.APIError{StatusCode: http.StatusBadGateway, Message: "upstream"}, ErrNetworkOrUnknown, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newUploadHarness(t, VendorModeAuto)
			h.bills.createErrs = []error{tt.err}
			id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

			res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.message, res.Error)
			assert.Zero(t, h.refresher.calls)
			assert.Len(t, h.transactions.withStatus(models.TransactionError), 1)
		})
	}
}

func TestUpload_RetryAfterError(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.bills.createErrs = []error{&zoho.APIError{StatusCode: http.StatusBadGateway}}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.Error(t, err)

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Len(t, h.transactions.withStatus(models.TransactionError), 1)
	assert.Len(t, h.transactions.withStatus(models.TransactionSuccess), 1)
}

func TestUpload_AttachmentFailureIsWarning(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.bills.attachErr = &zoho.APIError{StatusCode: http.StatusBadRequest, Message: "file too large"}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, 1, h.recorder.count(activity.TypeWarning))
}

func TestUpload_IncompleteSettings(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	h.settings.values = map[string]string{models.SettingAPIDomain: "https://www.zohoapis.com"}
	id := h.addExtracted(t, sampleInvoice("Acme Supplies"))

	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	assert.ErrorIs(t, err, ErrSettingsIncomplete)
	assert.Zero(t, h.bills.calls)
	assert.Empty(t, h.transactions.rows)
}

func TestUpload_ConfirmModeParksItem(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	id := h.addExtracted(t, sampleInvoice("Initech"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	assert.ErrorIs(t, err, ErrVendorConfirmationRequired)
	assert.Equal(t, models.StatusPendingVendor, res.Status)
	assert.Empty(t, h.transactions.rows)
	assert.Zero(t, h.bills.calls)
}

func TestUpload_ConfirmModeRetryFromError(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	h.settings.values = map[string]string{models.SettingAPIDomain: "https://www.zohoapis.com"}
	id := h.addExtracted(t, sampleInvoice("Initech"))

	res, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.ErrorIs(t, err, ErrSettingsIncomplete)
	require.Equal(t, models.StatusError, res.Status)

	h.settings.values = completeSettings()
	res, err = h.svc.Upload(context.Background(), id, UploadOptions{})
	assert.ErrorIs(t, err, ErrVendorConfirmationRequired)
	assert.Equal(t, models.StatusPendingVendor, res.Status)
	assert.Empty(t, res.Error)
	assert.Zero(t, h.bills.calls)

	res, err = h.svc.ConfirmVendor(context.Background(), id, VendorDetails{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
}

func TestCancelVendor_WritesNothing(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	id := h.addExtracted(t, sampleInvoice("Initech"))
	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.ErrorIs(t, err, ErrVendorConfirmationRequired)

	item, err := h.svc.CancelVendor(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingVendor, item.Status)
	assert.Empty(t, h.transactions.rows)
	assert.Empty(t, h.contacts.created)
	assert.Zero(t, h.bills.calls)
}

func TestCancelVendor_WrongState(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	id := h.addExtracted(t, sampleInvoice("Initech"))

	_, err := h.svc.CancelVendor(context.Background(), id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmVendor_CreatesAndUploads(t *testing.T) {
	h := newUploadHarness(t, VendorModeConfirm)
	id := h.addExtracted(t, sampleInvoice("Initech"))
	_, err := h.svc.Upload(context.Background(), id, UploadOptions{})
	require.ErrorIs(t, err, ErrVendorConfirmationRequired)

	res, err := h.svc.ConfirmVendor(context.Background(), id, VendorDetails{Email: "ap@initech.example"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.True(t, res.VendorCreated)

	require.Len(t, h.contacts.created, 1)
	assert.Equal(t, "INITECH", h.contacts.created[0].ContactName)
	assert.Equal(t, "CAD", h.contacts.created[0].CurrencyCode)
	assert.Equal(t, res.VendorID, h.bills.bills[0].VendorID)
	assert.Len(t, h.transactions.withStatus(models.TransactionSuccess), 1)
}

func TestUploadBatch_SelectedOnly(t *testing.T) {
	h := newUploadHarness(t, VendorModeAuto)
	first := h.addExtracted(t, sampleInvoice("Acme Supplies"))
	second := h.addExtracted(t, sampleInvoice("Acme Supplies"))
	_ = h.addExtracted(t, sampleInvoice("Acme Supplies"))

	for _, id := range []string{first, second} {
		_, err := h.queue.Update(id, func(q *models.QueueItem) error {
			q.Selected = true
			return nil
		})
		require.NoError(t, err)
	}
	h.bills.createErrs = []error{&zoho.APIError{StatusCode: http.StatusConflict, Message: "exists"}}

	results := h.svc.UploadBatch(context.Background(), nil)
	require.Len(t, results, 2)
	assert.Equal(t, first, results[0].ID)
	assert.Equal(t, models.StatusError, results[0].Status)
	assert.Equal(t, "Duplicate invoice detected: exists", results[0].Error)
	assert.Equal(t, second, results[1].ID)
	assert.Equal(t, models.StatusSuccess, results[1].Status)
	assert.Len(t, h.transactions.rows, 2)
}
