package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FolderWatcher stages PDF documents found in the configured watch folder.
type FolderWatcher struct {
	settings CredentialSource
	store    storage.Provider
	imports  repositories.StagedImportRepo
	activity ActivityRecorder
	logger   zerolog.Logger
}

func NewFolderWatcher(settings CredentialSource, store storage.Provider, imports repositories.StagedImportRepo, recorder ActivityRecorder) *FolderWatcher {
	return &FolderWatcher{
		settings: settings,
		store:    store,
		imports:  imports,
		activity: recorder,
		logger:   log.With().Str("component", "folder_watcher").Logger(),
	}
}

// Scan lists the watch folder and stages every PDF not seen before. A file
// rewritten under a known name counts as new. It returns the number of newly
// staged files. Unless force is set, a disabled
// watcher does nothing.
func (w *FolderWatcher) Scan(ctx context.Context, force bool) (int, error) {
	snap, err := w.settings.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if !force && !snap.WatchEnabled {
		return 0, nil
	}
	if snap.WatchFolder == "" {
		if force {
			return 0, fmt.Errorf("%w: watch folder is not configured", ErrSettingsIncomplete)
		}
		return 0, nil
	}

	objects, err := w.store.List(ctx, snap.WatchFolder)
	if err != nil {
		w.activity.Record(ctx, activity.TypeError, "Failed to scan watch folder: "+err.Error(), nil)
		return 0, fmt.Errorf("failed to list %s: %w", snap.WatchFolder, err)
	}

	staged := 0
	for _, obj := range objects {
		if !strings.EqualFold(path.Ext(obj.Name), ".pdf") {
			continue
		}
		created, err := w.imports.CreateIfAbsent(ctx, &models.StagedImport{
			SourcePath: obj.Path,
			FileName:   obj.Name,
			Size:       obj.Size,
			ModTime:    obj.ModTime.UTC().Truncate(time.Microsecond), // timestamptz keeps microseconds
		})
		if err != nil {
			w.logger.Error().Err(err).Str("path", obj.Path).Msg("failed to stage document")
			continue
		}
		if created {
			staged++
		}
	}

	if staged > 0 {
		w.logger.Info().Int("staged", staged).Str("folder", snap.WatchFolder).Str("provider", w.store.GetProviderName()).Msg("documents staged")
		w.activity.Record(ctx, activity.TypeInfo, fmt.Sprintf("Found %d new invoice(s) in %s", staged, snap.WatchFolder), nil)
	}
	return staged, nil
}
