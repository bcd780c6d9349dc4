package services

import (
	"errors"
	"fmt"

	"github.com/markedwards8480/invoice-processor/internal/core/extraction"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
)

var (
	ErrExtractionFailure          = extraction.ErrExtractionFailure
	ErrVendorResolution           = errors.New("vendor resolution failed")
	ErrAuthExpired                = errors.New("access token expired")
	ErrDuplicateDetected          = errors.New("duplicate invoice detected")
	ErrValidationFailure          = errors.New("invalid bill data")
	ErrAttachmentFailure          = errors.New("attachment failed")
	ErrNetworkOrUnknown           = errors.New("request failed")
	ErrVendorConfirmationRequired = errors.New("vendor confirmation required")
	ErrInvalidTransition          = models.ErrInvalidTransition
	ErrItemNotFound               = errors.New("queue item not found")
	ErrSettingsIncomplete         = errors.New("zoho settings incomplete")
)

// classify wraps an accounting-system error with the matching sentinel. The
// original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrDuplicateDetected),
		errors.Is(err, ErrValidationFailure), errors.Is(err, ErrNetworkOrUnknown):
		return err
	case errors.Is(err, zoho.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrAuthExpired, err)
	case errors.Is(err, zoho.ErrConflict):
		return fmt.Errorf("%w: %w", ErrDuplicateDetected, err)
	case errors.Is(err, zoho.ErrBadRequest):
		return fmt.Errorf("%w: %w", ErrValidationFailure, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetworkOrUnknown, err)
	}
}

func apiMessage(err error) string {
	var apiErr *zoho.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// HumanMessage converts an error into the text shown next to a queue item
// and in the activity log.
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := apiMessage(err)

	switch {
	case errors.Is(err, ErrVendorConfirmationRequired):
		return "Vendor not found. Confirm the vendor details to continue."
	case errors.Is(err, ErrSettingsIncomplete):
		return "Zoho settings are incomplete. Please check your settings."
	case errors.Is(err, ErrAuthExpired):
		return "Access token expired. Please generate a new token in Settings."
	case errors.Is(err, ErrDuplicateDetected):
		if msg == "" {
			msg = "invoice already exists for this vendor"
		}
		return "Duplicate invoice detected: " + msg
	case errors.Is(err, ErrValidationFailure):
		if msg == "" {
			msg = "Please check the invoice details"
		}
		return "Invalid bill data: " + msg
	case errors.Is(err, ErrExtractionFailure):
		return "Failed to extract invoice data: " + err.Error()
	case errors.Is(err, ErrVendorResolution):
		return "Failed to find or create vendor: " + err.Error()
	case errors.Is(err, ErrItemNotFound):
		return "Invoice not found in queue"
	case errors.Is(err, ErrInvalidTransition):
		return "Action not allowed in the current state: " + err.Error()
	}
	if msg != "" {
		return msg
	}
	return err.Error()
}
