package services

import (
	"context"

	"github.com/markedwards8480/invoice-processor/internal/core/scheduler"
)

// Scheduled job names.
const (
	JobTokenRefresh = "token-refresh"
	JobFolderWatch  = "folder-watch"
)

// TokenRefreshJob keeps the access token fresh in the background.
func TokenRefreshJob(settings *SettingsService) scheduler.Job {
	return func(ctx context.Context) error {
		refreshed, err := settings.RefreshIfNeeded(ctx)
		if err != nil {
			return err
		}
		if refreshed {
			settings.logger.Info().Msg("access token refreshed by scheduler")
		}
		return nil
	}
}

// FolderWatchJob stages new documents from the watch folder.
func FolderWatchJob(watcher *FolderWatcher) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := watcher.Scan(ctx, false)
		return err
	}
}
