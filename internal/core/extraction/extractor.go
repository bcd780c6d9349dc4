package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/core/llm"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrExtractionFailure covers a failed model call and an unreadable answer.
var ErrExtractionFailure = errors.New("invoice extraction failed")

// SupportedContentTypes are the document types accepted for extraction.
var SupportedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// DocumentReader is the part of the LLM service the extractor needs.
type DocumentReader interface {
	ReadDocument(ctx context.Context, doc llm.Document, instructions string) (string, error)
	GetProviderName() string
}

// Extractor turns an invoice document into an ExtractedInvoice.
type Extractor struct {
	reader DocumentReader
	logger zerolog.Logger
}

func NewExtractor(reader DocumentReader) *Extractor {
	return &Extractor{
		reader: reader,
		logger: log.With().Str("component", "extraction").Logger(),
	}
}

// Extract sends the document to the model and decodes its JSON answer.
func (e *Extractor) Extract(ctx context.Context, doc llm.Document) (*models.ExtractedInvoice, error) {
	ct := strings.ToLower(doc.ContentType)
	if !SupportedContentTypes[ct] {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrExtractionFailure, doc.ContentType)
	}
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrExtractionFailure)
	}

	e.logger.Info().Str("file", doc.Name).Str("provider", e.reader.GetProviderName()).Msg("extracting invoice")

	response, err := e.reader.ReadDocument(ctx, doc, extractionPrompt)
	if err != nil {
		e.logger.Error().Err(err).Str("file", doc.Name).Msg("model call failed")
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}

	invoice, err := Parse(response)
	if err != nil {
		e.logger.Warn().Err(err).Str("file", doc.Name).Str("response", response).Msg("unreadable extraction response")
		return nil, err
	}

	e.logger.Info().Str("file", doc.Name).Str("vendor", invoice.VendorName).Int("lines", len(invoice.LineItems)).Msg("invoice extracted")
	return invoice, nil
}

// Parse decodes the model's answer, tolerating ```json fences.
func Parse(response string) (*models.ExtractedInvoice, error) {
	cleaned := StripFences(response)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrExtractionFailure)
	}

	var invoice models.ExtractedInvoice
	if err := json.Unmarshal([]byte(cleaned), &invoice); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrExtractionFailure, err)
	}
	return &invoice, nil
}

// StripFences removes markdown code fences around a JSON answer.
func StripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

const extractionPrompt = `Extract the following information from this supplier/vendor invoice and return ONLY a JSON object with no markdown formatting or backticks:

{
  "vendorName": "vendor/supplier name",
  "invoiceNumber": "invoice/bill number",
  "invoiceDate": "YYYY-MM-DD format",
  "dueDate": "YYYY-MM-DD format or null",
  "referenceNumber": "PO number or reference if available, else null",
  "currency": "currency code like USD, EUR, CAD, etc",
  "subtotal": numeric value,
  "tax": numeric value,
  "total": numeric value,
  "lineItems": [
    {
      "description": "item/service description",
      "quantity": numeric value,
      "rate": numeric value (unit price),
      "amount": numeric value (total for this line)
    }
  ],
  "notes": "any notes or additional information on the invoice, or null"
}

If any field is not found, use null. Return only the JSON object.`
