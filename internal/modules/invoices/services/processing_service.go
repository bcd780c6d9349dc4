package services

import (
	"context"
	"fmt"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/llm"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InvoiceExtractor reads structured data out of an invoice document.
type InvoiceExtractor interface {
	Extract(ctx context.Context, doc llm.Document) (*models.ExtractedInvoice, error)
}

// ProcessingService runs the pre-upload stage of a queue item: extraction,
// validation, account suggestions and the duplicate check.
type ProcessingService struct {
	queue           *QueueService
	extractor       InvoiceExtractor
	suggester       *AccountSuggester
	duplicates      *DuplicateDetector
	activity        ActivityRecorder
	defaultCurrency string
	logger          zerolog.Logger
}

func NewProcessingService(queue *QueueService, extractor InvoiceExtractor, suggester *AccountSuggester,
	duplicates *DuplicateDetector, recorder ActivityRecorder, defaultCurrency string) *ProcessingService {
	return &ProcessingService{
		queue:           queue,
		extractor:       extractor,
		suggester:       suggester,
		duplicates:      duplicates,
		activity:        recorder,
		defaultCurrency: defaultCurrency,
		logger:          log.With().Str("component", "processing").Logger(),
	}
}

// Extract reads one pending (or failed) item and moves it to extracted.
func (s *ProcessingService) Extract(ctx context.Context, id string) (*models.QueueItem, error) {
	item, err := s.queue.Get(id)
	if err != nil {
		return nil, err
	}
	if item.Status != models.StatusPending && item.Status != models.StatusError {
		return item, fmt.Errorf("%w: cannot extract an item in status %s", ErrInvalidTransition, item.Status)
	}

	inv, err := s.extractor.Extract(ctx, llm.Document{Name: item.FileName, ContentType: item.ContentType, Data: item.Data})
	if err != nil {
		return s.fail(ctx, id, err)
	}

	if err := s.prepare(ctx, inv); err != nil {
		s.logger.Warn().Err(err).Str("item", id).Msg("account suggestion failed")
	}
	dup, err := s.duplicates.Check(ctx, inv)
	if err != nil {
		s.logger.Warn().Err(err).Str("item", id).Msg("duplicate check failed")
	}

	updated, err := s.queue.Update(id, func(q *models.QueueItem) error {
		if q.Status == models.StatusError {
			if err := q.Transition(models.StatusPending); err != nil {
				return err
			}
		}
		if err := q.Transition(models.StatusExtracted); err != nil {
			return err
		}
		q.Extracted = inv
		q.Issues = inv.Validate()
		q.Error = ""
		setDuplicate(q, dup)
		return nil
	})
	if err != nil {
		return updated, err
	}

	s.activity.Record(ctx, activity.TypeSuccess, fmt.Sprintf("Extracted invoice from %s", item.FileName), map[string]interface{}{
		"vendor":        inv.VendorName,
		"invoiceNumber": inv.InvoiceNumber,
		"total":         inv.TotalValue(),
	})
	if dup != nil {
		s.activity.Record(ctx, activity.TypeWarning, fmt.Sprintf("Possible duplicate: %s #%s was already processed", inv.VendorName, inv.InvoiceNumber),
			map[string]interface{}{"transactionId": dup.ID.String()})
	}
	return updated, nil
}

func (s *ProcessingService) fail(ctx context.Context, id string, cause error) (*models.QueueItem, error) {
	msg := HumanMessage(cause)
	item, err := s.queue.Update(id, func(q *models.QueueItem) error {
		return q.Fail(msg)
	})
	s.activity.Record(ctx, activity.TypeError, msg, map[string]interface{}{"itemId": id})
	if err != nil {
		s.logger.Error().Err(err).Str("item", id).Msg("failed to mark item as failed")
	}
	return item, cause
}

func (s *ProcessingService) prepare(ctx context.Context, inv *models.ExtractedInvoice) error {
	inv.Normalize(s.defaultCurrency)
	return s.suggester.SuggestAll(ctx, inv)
}

func setDuplicate(q *models.QueueItem, dup *models.Transaction) {
	q.Duplicate = dup != nil
	q.DuplicateTransactionID = ""
	if dup != nil {
		q.DuplicateTransactionID = dup.ID.String()
	}
}

// ExtractResult is the per-item outcome of ExtractPending.
type ExtractResult struct {
	ID     string             `json:"id"`
	Status models.QueueStatus `json:"status"`
	Error  string             `json:"error,omitempty"`
}

// ExtractPending extracts every pending item, one after another.
func (s *ProcessingService) ExtractPending(ctx context.Context) []ExtractResult {
	ids := s.queue.WithStatus(models.StatusPending)
	results := make([]ExtractResult, 0, len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		item, err := s.Extract(ctx, id)
		r := ExtractResult{ID: id}
		if item != nil {
			r.Status = item.Status
		}
		if err != nil {
			r.Error = HumanMessage(err)
		}
		results = append(results, r)
	}
	return results
}

// Edit replaces the extracted data of an item, recalculates totals and
// reruns validation and the duplicate check.
func (s *ProcessingService) Edit(ctx context.Context, id string, inv *models.ExtractedInvoice) (*models.QueueItem, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: extracted data is required", ErrValidationFailure)
	}
	inv.Normalize(s.defaultCurrency)
	inv.Recalculate()

	dup, err := s.duplicates.Check(ctx, inv)
	if err != nil {
		s.logger.Warn().Err(err).Str("item", id).Msg("duplicate check failed")
	}

	return s.queue.Update(id, func(q *models.QueueItem) error {
		next := models.StatusExtracted
		if q.Status == models.StatusPendingVendor {
			next = models.StatusPendingVendor
		}
		if err := q.Transition(next); err != nil {
			return err
		}
		q.Extracted = inv
		q.Issues = inv.Validate()
		q.Error = ""
		setDuplicate(q, dup)
		return nil
	})
}

// Select marks an item for batch upload.
func (s *ProcessingService) Select(id string, selected bool) (*models.QueueItem, error) {
	return s.queue.Update(id, func(q *models.QueueItem) error {
		q.Selected = selected
		return nil
	})
}
