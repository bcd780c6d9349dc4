package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func watchSettings(enabled bool) *SettingsService {
	values := completeSettings()
	values[models.SettingWatchFolder] = "inbox"
	values[models.SettingProcessedFolder] = "processed"
	values[models.SettingFailedFolder] = "failed"
	if enabled {
		values[models.SettingWatchEnabled] = "true"
	}
	svc, _, _ := newTestSettings(values)
	return svc
}

func TestFolderWatcher_StagesNewPDFsOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/a.pdf", "%PDF-a")
	writeFile(t, root, "inbox/B.PDF", "%PDF-b")
	writeFile(t, root, "inbox/notes.txt", "skip")

	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)
	imports := &fakeStagedRepo{}
	w := NewFolderWatcher(watchSettings(true), store, imports, &fakeRecorder{})

	n, err := w.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, imports.rows, 2)
	assert.Equal(t, "inbox/B.PDF", imports.rows[0].SourcePath)
}

func TestFolderWatcher_Disabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/a.pdf", "%PDF-a")
	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)
	imports := &fakeStagedRepo{}
	w := NewFolderWatcher(watchSettings(false), store, imports, &fakeRecorder{})

	require.NoError(t, FolderWatchJob(w)(context.Background()))
	assert.Empty(t, imports.rows)

	n, err := w.Scan(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportService_FetchIntoQueue(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/a.pdf", "%PDF-a")
	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)
	imports := &fakeStagedRepo{}
	queue := NewQueueService(0)

	w := NewFolderWatcher(watchSettings(true), store, imports, &fakeRecorder{})
	_, err = w.Scan(context.Background(), false)
	require.NoError(t, err)

	svc := NewImportService(imports, store, queue, &fakeRecorder{})
	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	items, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "application/pdf", items[0].ContentType)
	assert.Equal(t, "inbox/a.pdf", items[0].SourcePath)
	assert.Equal(t, pending[0].ID.String(), items[0].StagedImportID)

	pending, err = svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Len(t, queue.List(), 1)
}

func TestFolderWatcher_RestagesRewrittenFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/a.pdf", "%PDF-a")
	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)
	imports := &fakeStagedRepo{}
	w := NewFolderWatcher(watchSettings(true), store, imports, &fakeRecorder{})
	svc := NewImportService(imports, store, NewQueueService(0), &fakeRecorder{})

	n, err := w.Scan(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	_, err = svc.Fetch(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "inbox/a.pdf", "%PDF-a second invoice")
	n, err = w.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// same size, new modification time
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "inbox", "a.pdf"), later, later))
	n, err = w.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.Scan(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, imports.rows, 3)
}

func TestImportService_RejectedFileIsMarkedFetched(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/big.pdf", "%PDF-too-large")
	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)
	imports := &fakeStagedRepo{}
	recorder := &fakeRecorder{}

	w := NewFolderWatcher(watchSettings(true), store, imports, &fakeRecorder{})
	_, err = w.Scan(context.Background(), false)
	require.NoError(t, err)

	svc := NewImportService(imports, store, NewQueueService(4), recorder)
	items, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, recorder.count(activity.TypeError))

	items, err = svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, recorder.count(activity.TypeError))

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpload_MovesStoredDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inbox/a.pdf", "%PDF-a")
	writeFile(t, root, "inbox/b.pdf", "%PDF-b")
	store, err := storage.NewLocalProvider(root)
	require.NoError(t, err)

	settings := watchSettings(true)
	queue := NewQueueService(0)
	contacts := &fakeContacts{contacts: []zoho.Contact{{ContactID: "V1", ContactName: "ACME SUPPLIES", ContactType: "vendor"}}}
	bills := &fakeBills{createErrs: []error{nil, &zoho.APIError{StatusCode: 400, Message: "bad"}}}
	svc := NewUploadService(queue, settings, bills, NewVendorResolver(contacts, VendorModeAuto),
		NewAccountSuggester(&fakeMappingRepo{}, &fakeAccountRepo{}), &fakeTransactionRepo{}, store, &fakeRecorder{}, "CAD")

	ids := make([]string, 0, 2)
	for _, name := range []string{"a.pdf", "b.pdf"} {
		item, err := queue.Add(NewItem{FileName: name, ContentType: "application/pdf", Data: []byte("%PDF"), SourcePath: "inbox/" + name})
		require.NoError(t, err)
		_, err = queue.Update(item.ID, func(q *models.QueueItem) error {
			q.Extracted = sampleInvoice("Acme Supplies")
			return q.Transition(models.StatusExtracted)
		})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	results := svc.UploadBatch(context.Background(), ids)
	require.Len(t, results, 2)

	assert.FileExists(t, filepath.Join(root, "processed", "a.pdf"))
	assert.FileExists(t, filepath.Join(root, "failed", "b.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "inbox", "a.pdf"))
}
