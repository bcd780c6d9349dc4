package services

import (
	"context"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ImportService moves staged documents from the store into the queue.
type ImportService struct {
	imports  repositories.StagedImportRepo
	store    storage.Provider
	queue    *QueueService
	activity ActivityRecorder
	logger   zerolog.Logger
}

func NewImportService(imports repositories.StagedImportRepo, store storage.Provider, queue *QueueService, recorder ActivityRecorder) *ImportService {
	return &ImportService{
		imports:  imports,
		store:    store,
		queue:    queue,
		activity: recorder,
		logger:   log.With().Str("component", "imports").Logger(),
	}
}

// Pending returns the staged documents not yet fetched.
func (s *ImportService) Pending(ctx context.Context) ([]models.StagedImport, error) {
	return s.imports.ListUnfetched(ctx)
}

// Fetch loads every unfetched document into the queue, then marks it
// fetched. A crash in between fetches the document again next time.
func (s *ImportService) Fetch(ctx context.Context) ([]*models.QueueItem, error) {
	staged, err := s.imports.ListUnfetched(ctx)
	if err != nil {
		return nil, err
	}

	var items []*models.QueueItem
	for _, imp := range staged {
		data, err := s.store.Read(ctx, imp.SourcePath)
		if err != nil {
			s.logger.Error().Err(err).Str("path", imp.SourcePath).Msg("failed to read staged document")
			s.activity.Record(ctx, activity.TypeError, "Failed to read "+imp.FileName+": "+err.Error(), nil)
			continue
		}

		item, err := s.queue.Add(NewItem{
			FileName:       imp.FileName,
			ContentType:    storage.ContentTypeFor(imp.FileName),
			Data:           data,
			StagedImportID: imp.ID.String(),
			SourcePath:     imp.SourcePath,
		})
		if err != nil {
			// Rejections are permanent for this version of the file.
			s.activity.Record(ctx, activity.TypeError, HumanMessage(err), map[string]interface{}{"file": imp.FileName})
			s.markFetched(ctx, imp)
			continue
		}
		items = append(items, item)
		s.markFetched(ctx, imp)
	}

	if len(items) > 0 {
		s.activity.Record(ctx, activity.TypeInfo, "Imported documents from watch folder", map[string]interface{}{"count": len(items)})
	}
	return items, nil
}

func (s *ImportService) markFetched(ctx context.Context, imp models.StagedImport) {
	if err := s.imports.MarkFetched(ctx, imp.ID); err != nil {
		s.logger.Warn().Err(err).Str("path", imp.SourcePath).Msg("failed to mark document fetched")
	}
}
