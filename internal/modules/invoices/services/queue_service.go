package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/markedwards8480/invoice-processor/internal/core/extraction"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
)

// QueueService is the in-memory upload queue. Items never reach the database;
// only upload results do.
type QueueService struct {
	mu       sync.Mutex
	items    map[string]*models.QueueItem
	order    []string
	maxBytes int
}

func NewQueueService(maxBytes int) *QueueService {
	return &QueueService{
		items:    make(map[string]*models.QueueItem),
		maxBytes: maxBytes,
	}
}

// NewItem describes a document entering the queue.
type NewItem struct {
	FileName       string
	ContentType    string
	Data           []byte
	StagedImportID string
	SourcePath     string
}

// Add validates and enqueues a document in the pending state.
func (q *QueueService) Add(in NewItem) (*models.QueueItem, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0]))
	if !extraction.SupportedContentTypes[ct] {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrValidationFailure, in.ContentType)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrValidationFailure, in.FileName)
	}
	if q.maxBytes > 0 && len(in.Data) > q.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte limit", ErrValidationFailure, in.FileName, q.maxBytes)
	}

	now := time.Now()
	item := &models.QueueItem{
		ID:             uuid.New().String(),
		FileName:       in.FileName,
		ContentType:    ct,
		Size:           len(in.Data),
		Data:           in.Data,
		Status:         models.StatusPending,
		StagedImportID: in.StagedImportID,
		SourcePath:     in.SourcePath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[item.ID] = item
	q.order = append(q.order, item.ID)
	return item.Clone(), nil
}

// List returns copies of all items in insertion order.
func (q *QueueService) List() []*models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.QueueItem, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.items[id].Clone())
	}
	return out
}

// Get returns a copy of one item.
func (q *QueueService) Get(id string) (*models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return item.Clone(), nil
}

// Update runs fn on the live item under the queue lock. A failed fn leaves
// the item untouched.
func (q *QueueService) Update(id string, fn func(item *models.QueueItem) error) (*models.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}

	work := item.Clone()
	if err := fn(work); err != nil {
		return item.Clone(), err
	}
	q.items[id] = work
	return work.Clone(), nil
}

// Remove drops an item. Items mid-upload cannot be removed.
func (q *QueueService) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if item.Status == models.StatusUploading {
		return fmt.Errorf("%w: item is uploading", ErrInvalidTransition)
	}

	delete(q.items, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return nil
}

// Selected returns the ids of selected items in queue order.
func (q *QueueService) Selected() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ids []string
	for _, id := range q.order {
		if q.items[id].Selected {
			ids = append(ids, id)
		}
	}
	return ids
}

// WithStatus returns the ids of items in the given status, in queue order.
func (q *QueueService) WithStatus(status models.QueueStatus) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ids []string
	for _, id := range q.order {
		if q.items[id].Status == status {
			ids = append(ids, id)
		}
	}
	return ids
}
