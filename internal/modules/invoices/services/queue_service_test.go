package services

import (
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_AddValidates(t *testing.T) {
	q := NewQueueService(4)

	_, err := q.Add(NewItem{FileName: "a.gif", ContentType: "image/gif", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrValidationFailure)

	_, err = q.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf"})
	assert.ErrorIs(t, err, ErrValidationFailure)

	_, err = q.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("12345")})
	assert.ErrorIs(t, err, ErrValidationFailure)

	item, err := q.Add(NewItem{FileName: "a.jpg", ContentType: "IMAGE/JPEG; charset=binary", Data: []byte("1234")})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", item.ContentType)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, 4, item.Size)
}

func TestQueue_ListKeepsOrderAndCopies(t *testing.T) {
	q := NewQueueService(0)
	a, _ := q.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("1")})
	b, _ := q.Add(NewItem{FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("2")})

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	list[0].Status = models.StatusSuccess
	got, err := q.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestQueue_UpdateRollsBackOnError(t *testing.T) {
	q := NewQueueService(0)
	a, _ := q.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("1")})

	_, err := q.Update(a.ID, func(item *models.QueueItem) error {
		item.Selected = true
		return item.Transition(models.StatusSuccess)
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := q.Get(a.ID)
	require.NoError(t, err)
	assert.False(t, got.Selected)
}

func TestQueue_Remove(t *testing.T) {
	q := NewQueueService(0)
	a, _ := q.Add(NewItem{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("1")})
	b, _ := q.Add(NewItem{FileName: "b.pdf", ContentType: "application/pdf", Data: []byte("2")})

	require.NoError(t, q.Remove(a.ID))
	assert.ErrorIs(t, q.Remove(a.ID), ErrItemNotFound)

	_, err := q.Update(b.ID, func(item *models.QueueItem) error {
		item.Extracted = &models.ExtractedInvoice{}
		if err := item.Transition(models.StatusExtracted); err != nil {
			return err
		}
		return item.Transition(models.StatusUploading)
	})
	require.NoError(t, err)
	assert.ErrorIs(t, q.Remove(b.ID), ErrInvalidTransition)
	assert.Len(t, q.List(), 1)
}
