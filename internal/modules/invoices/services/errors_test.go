package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	err := classify(&zoho.APIError{StatusCode: http.StatusUnauthorized})
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.ErrorIs(t, err, zoho.ErrUnauthorized)

	assert.ErrorIs(t, classify(&zoho.APIError{StatusCode: http.StatusConflict}), ErrDuplicateDetected)
	assert.ErrorIs(t, classify(&zoho.APIError{StatusCode: http.StatusBadRequest}), ErrValidationFailure)
	assert.ErrorIs(t, classify(errors.New("connection reset")), ErrNetworkOrUnknown)

	already := fmt.Errorf("%w: x", ErrDuplicateDetected)
	assert.Equal(t, already, classify(already))
}

func TestHumanMessage(t *testing.T) {
	assert.Equal(t, "", HumanMessage(nil))
	assert.Equal(t, "Access token expired. Please generate a new token in Settings.",
		HumanMessage(classify(&zoho.APIError{StatusCode: http.StatusUnauthorized})))
	assert.Equal(t, "Invalid bill data: Please check the invoice details",
		HumanMessage(classify(&zoho.APIError{StatusCode: http.StatusBadRequest})))
	assert.Equal(t, "Invoice not found in queue", HumanMessage(ErrItemNotFound))
	assert.Equal(t, "plain failure", HumanMessage(errors.New("plain failure")))
}
