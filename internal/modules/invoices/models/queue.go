package models

import (
	"errors"
	"fmt"
	"time"
)

// QueueStatus is the lifecycle state of one uploaded document.
type QueueStatus string

const (
	StatusPending       QueueStatus = "pending"
	StatusExtracted     QueueStatus = "extracted"
	StatusPendingVendor QueueStatus = "pending_vendor"
	StatusUploading     QueueStatus = "uploading"
	StatusSuccess       QueueStatus = "success"
	StatusError         QueueStatus = "error"
)

// ErrInvalidTransition is returned for a move the transition table does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[QueueStatus][]QueueStatus{
	StatusPending:       {StatusExtracted, StatusError},
	StatusExtracted:     {StatusUploading, StatusPendingVendor, StatusError, StatusExtracted},
	StatusPendingVendor: {StatusUploading, StatusError, StatusPendingVendor},
	StatusUploading:     {StatusSuccess, StatusError},
	StatusError:         {StatusPending, StatusExtracted},
	StatusSuccess:       {},
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to QueueStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s QueueStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// QueueItem is an in-memory upload queue entry. It is never persisted.
type QueueItem struct {
	ID                     string            `json:"id"`
	FileName               string            `json:"fileName"`
	ContentType            string            `json:"contentType"`
	Size                   int               `json:"size"`
	Data                   []byte            `json:"-"`
	Status                 QueueStatus       `json:"status"`
	Extracted              *ExtractedInvoice `json:"extractedData,omitempty"`
	Issues                 []ValidationIssue `json:"validationIssues,omitempty"`
	Duplicate              bool              `json:"isDuplicate"`
	DuplicateTransactionID string            `json:"duplicateTransactionId,omitempty"`
	Selected               bool              `json:"selected"`
	Error                  string            `json:"error,omitempty"`
	ExternalBillID         string            `json:"externalBillId,omitempty"`
	VendorID               string            `json:"vendorId,omitempty"`
	StagedImportID         string            `json:"stagedImportId,omitempty"`
	SourcePath             string            `json:"sourcePath,omitempty"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}

// Transition moves the item to the given status, enforcing the table and the
// rule that success always carries an external bill id.
func (q *QueueItem) Transition(to QueueStatus) error {
	if q.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, q.Status)
	}
	if !CanTransition(q.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, to)
	}
	if to == StatusSuccess && q.ExternalBillID == "" {
		return fmt.Errorf("%w: success requires an external bill id", ErrInvalidTransition)
	}
	q.Status = to
	q.UpdatedAt = time.Now()
	return nil
}

// Fail moves the item to error and records the message. A failed item only
// gets its message replaced.
func (q *QueueItem) Fail(msg string) error {
	if q.Status == StatusError {
		q.Error = msg
		q.UpdatedAt = time.Now()
		return nil
	}
	if err := q.Transition(StatusError); err != nil {
		return err
	}
	q.Error = msg
	return nil
}

// Clone returns a copy safe to hand out of the queue lock.
func (q *QueueItem) Clone() *QueueItem {
	c := *q
	if q.Extracted != nil {
		e := *q.Extracted
		e.LineItems = append([]LineItem(nil), q.Extracted.LineItems...)
		c.Extracted = &e
	}
	c.Issues = append([]ValidationIssue(nil), q.Issues...)
	return &c
}
