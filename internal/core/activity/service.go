package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Service records the activity feed. Recording never fails the caller; store
// errors are logged.
type Service struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a new activity service
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		logger: log.With().Str("component", "activity").Logger(),
	}
}

// Record appends an entry and prunes the feed to MaxEntries.
func (s *Service) Record(ctx context.Context, typ Type, message string, details map[string]interface{}) {
	entry := &Entry{
		Timestamp: s.now(),
		Type:      typ,
		Message:   message,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to serialize activity details")
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}

	event := s.logger.Info()
	switch typ {
	case TypeError:
		event = s.logger.Error()
	case TypeWarning:
		event = s.logger.Warn()
	}
	event.Str("type", string(typ)).Msg(message)

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Msg("activity insert failed")
		return
	}
	if err := s.store.Prune(ctx, MaxEntries); err != nil {
		s.logger.Error().Err(err).Msg("activity prune failed")
	}
}

func (s *Service) Success(ctx context.Context, message string, details map[string]interface{}) {
	s.Record(ctx, TypeSuccess, message, details)
}

func (s *Service) Error(ctx context.Context, message string, details map[string]interface{}) {
	s.Record(ctx, TypeError, message, details)
}

func (s *Service) Warning(ctx context.Context, message string, details map[string]interface{}) {
	s.Record(ctx, TypeWarning, message, details)
}

func (s *Service) Info(ctx context.Context, message string, details map[string]interface{}) {
	s.Record(ctx, TypeInfo, message, details)
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 || filter.Limit > MaxEntries {
		filter.Limit = MaxEntries
	}
	return s.store.List(ctx, filter)
}

// Clear removes every entry.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
