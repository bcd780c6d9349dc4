package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BillAPI is the part of the accounting client used to post bills.
type BillAPI interface {
	CreateBill(ctx context.Context, creds zoho.Credentials, bill zoho.Bill) (*zoho.CreatedBill, error)
	AttachToBill(ctx context.Context, creds zoho.Credentials, billID, fileName, contentType string, data []byte) error
}

// UploadOptions tune a single upload.
type UploadOptions struct {
	VendorID string `json:"vendorId"`
}

// UploadResult is the outcome of one upload attempt.
type UploadResult struct {
	ID             string             `json:"id"`
	Status         models.QueueStatus `json:"status"`
	ExternalBillID string             `json:"externalBillId,omitempty"`
	VendorID       string             `json:"vendorId,omitempty"`
	VendorCreated  bool               `json:"vendorCreated,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// UploadService turns extracted queue items into bills.
type UploadService struct {
	queue           *QueueService
	credentials     CredentialSource
	bills           BillAPI
	vendors         *VendorResolver
	suggester       *AccountSuggester
	transactions    repositories.TransactionRepo
	store           storage.Provider
	activity        ActivityRecorder
	defaultCurrency string
	logger          zerolog.Logger
}

func NewUploadService(queue *QueueService, credentials CredentialSource, bills BillAPI, vendors *VendorResolver,
	suggester *AccountSuggester, transactions repositories.TransactionRepo, store storage.Provider,
	recorder ActivityRecorder, defaultCurrency string) *UploadService {
	return &UploadService{
		queue:           queue,
		credentials:     credentials,
		bills:           bills,
		vendors:         vendors,
		suggester:       suggester,
		transactions:    transactions,
		store:           store,
		activity:        recorder,
		defaultCurrency: defaultCurrency,
		logger:          log.With().Str("component", "upload").Logger(),
	}
}

// Upload posts an item as a bill. In confirm mode an unknown vendor parks
// the item in pending_vendor and ErrVendorConfirmationRequired is returned.
func (s *UploadService) Upload(ctx context.Context, id string, opts UploadOptions) (*UploadResult, error) {
	item, err := s.queue.Get(id)
	if err != nil {
		return nil, err
	}
	if item.Extracted == nil {
		return resultOf(item), fmt.Errorf("%w: item has not been extracted", ErrInvalidTransition)
	}
	if !models.CanTransition(item.Status, models.StatusUploading) && item.Status != models.StatusError {
		return resultOf(item), fmt.Errorf("%w: cannot upload an item in status %s", ErrInvalidTransition, item.Status)
	}

	session, err := newAuthSession(ctx, s.credentials, s.activity)
	if err != nil {
		return s.finishFailure(ctx, item, nil, err)
	}

	vendorID, created := opts.VendorID, false
	if vendorID == "" {
		res, err := s.resolveVendor(ctx, session, item.Extracted.VendorName)
		if err != nil {
			return s.finishFailure(ctx, item, session, err)
		}
		if res.NotFound {
			return s.parkForVendor(ctx, item)
		}
		vendorID, created = res.VendorID, res.Created
	}

	item, err = s.queue.Update(id, func(q *models.QueueItem) error {
		if q.Status == models.StatusError {
			if err := q.Transition(models.StatusExtracted); err != nil {
				return err
			}
		}
		if err := q.Transition(models.StatusUploading); err != nil {
			return err
		}
		q.VendorID = vendorID
		q.Error = ""
		return nil
	})
	if err != nil {
		return resultOf(item), err
	}

	bill := BuildBill(item.Extracted, vendorID, s.defaultCurrency)
	var createdBill *zoho.CreatedBill
	err = session.Do(ctx, func(creds zoho.Credentials) error {
		var cerr error
		createdBill, cerr = s.bills.CreateBill(ctx, creds, bill)
		return cerr
	})
	if err != nil {
		return s.finishFailure(ctx, item, session, classify(err))
	}

	s.attach(ctx, session, item, createdBill.BillID)

	if err := s.suggester.Learn(ctx, item.Extracted.VendorName, item.Extracted.LineItems); err != nil {
		s.logger.Warn().Err(err).Str("item", id).Msg("failed to learn account mappings")
	}

	item, err = s.queue.Update(id, func(q *models.QueueItem) error {
		q.ExternalBillID = createdBill.BillID
		return q.Transition(models.StatusSuccess)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("item", id).Msg("failed to mark item as uploaded")
	}

	s.record(ctx, item, models.TransactionSuccess, createdBill.BillID, "")
	s.relocate(ctx, item, session.Settings().ProcessedFolder)
	s.activity.Record(ctx, activity.TypeSuccess,
		fmt.Sprintf("Bill created for %s #%s", item.Extracted.VendorName, item.Extracted.InvoiceNumber),
		map[string]interface{}{"billId": createdBill.BillID, "vendorCreated": created, "total": item.Extracted.TotalValue()})

	result := resultOf(item)
	result.VendorCreated = created
	return result, nil
}

func (s *UploadService) resolveVendor(ctx context.Context, session *authSession, name string) (*VendorResolution, error) {
	var res *VendorResolution
	err := session.Do(ctx, func(creds zoho.Credentials) error {
		var rerr error
		res, rerr = s.vendors.Resolve(ctx, creds, name)
		return rerr
	})
	if err != nil {
		return nil, vendorError(err)
	}
	if res.Created {
		s.activity.Record(ctx, activity.TypeInfo, "Created new vendor: "+res.MatchedName, map[string]interface{}{"vendorId": res.VendorID})
	}
	return res, nil
}

func vendorError(err error) error {
	if errors.Is(err, zoho.ErrUnauthorized) && !errors.Is(err, ErrAuthExpired) {
		return fmt.Errorf("%w: %w", ErrAuthExpired, err)
	}
	return err
}

func (s *UploadService) parkForVendor(ctx context.Context, item *models.QueueItem) (*UploadResult, error) {
	updated, err := s.queue.Update(item.ID, func(q *models.QueueItem) error {
		if q.Status == models.StatusError {
			if err := q.Transition(models.StatusExtracted); err != nil {
				return err
			}
		}
		q.Error = ""
		return q.Transition(models.StatusPendingVendor)
	})
	if err != nil {
		return resultOf(updated), err
	}
	s.activity.Record(ctx, activity.TypeWarning, "Vendor not found: "+item.Extracted.VendorName,
		map[string]interface{}{"itemId": item.ID})
	return resultOf(updated), ErrVendorConfirmationRequired
}

// ConfirmVendor creates the user-confirmed vendor and continues the upload.
func (s *UploadService) ConfirmVendor(ctx context.Context, id string, details VendorDetails) (*UploadResult, error) {
	item, err := s.queue.Get(id)
	if err != nil {
		return nil, err
	}
	if item.Status != models.StatusPendingVendor {
		return resultOf(item), fmt.Errorf("%w: item is not waiting for a vendor", ErrInvalidTransition)
	}
	if details.Name == "" {
		details.Name = item.Extracted.VendorName
	}
	if details.Currency == "" {
		details.Currency = item.Extracted.CurrencyOrDefault(s.defaultCurrency)
	}

	session, err := newAuthSession(ctx, s.credentials, s.activity)
	if err != nil {
		return s.finishFailure(ctx, item, nil, err)
	}

	var res *VendorResolution
	err = session.Do(ctx, func(creds zoho.Credentials) error {
		var cerr error
		res, cerr = s.vendors.CreateVendor(ctx, creds, details)
		return cerr
	})
	if err != nil {
		return s.finishFailure(ctx, item, session, vendorError(err))
	}
	s.activity.Record(ctx, activity.TypeSuccess, "Created new vendor: "+res.MatchedName, map[string]interface{}{"vendorId": res.VendorID})

	result, err := s.Upload(ctx, id, UploadOptions{VendorID: res.VendorID})
	if result != nil {
		result.VendorCreated = true
	}
	return result, err
}

// CancelVendor abandons vendor creation. The item stays in pending_vendor.
func (s *UploadService) CancelVendor(ctx context.Context, id string) (*models.QueueItem, error) {
	item, err := s.queue.Update(id, func(q *models.QueueItem) error {
		if q.Status != models.StatusPendingVendor {
			return fmt.Errorf("%w: item is not waiting for a vendor", ErrInvalidTransition)
		}
		return q.Transition(models.StatusPendingVendor)
	})
	if err != nil {
		return item, err
	}
	s.activity.Record(ctx, activity.TypeInfo, "Vendor creation cancelled for "+item.FileName, nil)
	return item, nil
}

// UploadBatch uploads the given items one after another, or every selected
// item when ids is empty. A failure never stops the batch.
func (s *UploadService) UploadBatch(ctx context.Context, ids []string) []UploadResult {
	if len(ids) == 0 {
		ids = s.queue.Selected()
	}

	results := make([]UploadResult, 0, len(ids))
	succeeded := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			results = append(results, UploadResult{ID: id, Error: ctx.Err().Error()})
			continue
		}
		res, err := s.Upload(ctx, id, UploadOptions{})
		if res == nil {
			res = &UploadResult{ID: id}
		}
		if err != nil {
			res.Error = HumanMessage(err)
		} else {
			succeeded++
		}
		results = append(results, *res)
	}

	s.activity.Record(ctx, activity.TypeInfo, fmt.Sprintf("Batch upload finished: %d of %d succeeded", succeeded, len(ids)), nil)
	return results
}

// BuildBill maps an extracted invoice to a bill payload. Tax goes in as an
// adjustment so line rates stay pre-tax.
func BuildBill(inv *models.ExtractedInvoice, vendorID, defaultCurrency string) zoho.Bill {
	bill := zoho.Bill{
		VendorID:        vendorID,
		BillNumber:      inv.InvoiceNumber,
		Date:            inv.InvoiceDate,
		DueDate:         inv.DueDateOrInvoiceDate(),
		ReferenceNumber: inv.ReferenceNumber,
		CurrencyCode:    inv.CurrencyOrDefault(defaultCurrency),
		Notes:           inv.Notes,
		LineItems:       make([]zoho.BillLineItem, 0, len(inv.LineItems)),
	}
	for i, li := range inv.LineItems {
		bill.LineItems = append(bill.LineItems, zoho.BillLineItem{
			Description: li.Description,
			Rate:        li.RateValue(),
			Quantity:    li.QuantityOrOne(),
			AccountID:   li.AccountID,
			ItemOrder:   i,
		})
	}
	if tax := inv.TaxValue(); tax > 0 {
		bill.Adjustment = tax
		bill.AdjustmentDescription = "Tax"
	}
	return bill
}

func (s *UploadService) attach(ctx context.Context, session *authSession, item *models.QueueItem, billID string) {
	if len(item.Data) == 0 {
		return
	}
	err := session.Do(ctx, func(creds zoho.Credentials) error {
		return s.bills.AttachToBill(ctx, creds, billID, item.FileName, item.ContentType, item.Data)
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAttachmentFailure, err)
		s.logger.Warn().Err(err).Str("bill_id", billID).Msg("attachment failed")
		s.activity.Record(ctx, activity.TypeWarning, "Bill created but attachment failed: "+apiMessageOr(err),
			map[string]interface{}{"billId": billID})
	}
}

func apiMessageOr(err error) string {
	if msg := apiMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

// finishFailure marks the item as failed and writes the error transaction.
func (s *UploadService) finishFailure(ctx context.Context, item *models.QueueItem, session *authSession, cause error) (*UploadResult, error) {
	msg := HumanMessage(cause)
	updated, err := s.queue.Update(item.ID, func(q *models.QueueItem) error {
		return q.Fail(msg)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("item", item.ID).Msg("failed to mark item as failed")
	}

	s.logger.Error().Err(cause).Str("item", item.ID).Str("file", item.FileName).Msg("upload failed")
	// No accounting call was made without a session, so there is nothing to record.
	if session != nil {
		s.record(ctx, updated, models.TransactionError, "", msg)
		s.relocate(ctx, updated, session.Settings().FailedFolder)
	}
	s.activity.Record(ctx, activity.TypeError, msg, map[string]interface{}{"itemId": item.ID, "file": item.FileName})

	return resultOf(updated), cause
}

// record appends the ledger row. Ledger failures never fail the upload.
func (s *UploadService) record(ctx context.Context, item *models.QueueItem, status, billID, errMsg string) {
	if item == nil || item.Extracted == nil {
		return
	}
	inv := item.Extracted

	tx := &models.Transaction{
		VendorName:    inv.VendorName,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		TotalAmount:   inv.TotalValue(),
		Currency:      inv.CurrencyOrDefault(s.defaultCurrency),
		Status:        status,
		FileName:      item.FileName,
	}
	if billID != "" {
		tx.ExternalBillID = &billID
	}
	if errMsg != "" {
		tx.ErrorMessage = &errMsg
	}
	if raw, err := json.Marshal(inv); err == nil {
		tx.ExtractedData = raw
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		s.logger.Error().Err(err).Str("item", item.ID).Msg("failed to write transaction")
	}
}

func (s *UploadService) relocate(ctx context.Context, item *models.QueueItem, folder string) {
	if s.store == nil || item == nil || item.SourcePath == "" || folder == "" {
		return
	}
	dest, err := s.store.Move(ctx, item.SourcePath, folder)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", item.SourcePath).Msg("failed to move document")
		s.activity.Record(ctx, activity.TypeWarning, "Could not move "+item.FileName+" to "+folder, nil)
		return
	}
	s.logger.Info().Str("from", item.SourcePath).Str("to", dest).Msg("document moved")
}

func resultOf(item *models.QueueItem) *UploadResult {
	if item == nil {
		return nil
	}
	return &UploadResult{
		ID:             item.ID,
		Status:         item.Status,
		ExternalBillID: item.ExternalBillID,
		VendorID:       item.VendorID,
		Error:          item.Error,
	}
}
