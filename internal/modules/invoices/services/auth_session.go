package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
)

// authSession runs accounting calls for one user action. The first 401 in the
// session triggers one token refresh and a retry; any later 401 is final.
type authSession struct {
	source    CredentialSource
	activity  ActivityRecorder
	snap      models.ZohoSettings
	refreshed bool
}

func newAuthSession(ctx context.Context, source CredentialSource, recorder ActivityRecorder) (*authSession, error) {
	snap, err := source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if missing := snap.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrSettingsIncomplete, strings.Join(missing, ", "))
	}

	s := &authSession{source: source, activity: recorder, snap: snap}
	if snap.AccessToken == "" {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *authSession) refresh(ctx context.Context) error {
	s.refreshed = true
	snap, err := s.source.RefreshAccessToken(ctx)
	if err != nil {
		return err
	}
	s.snap = snap
	return nil
}

// Settings returns the snapshot currently in use.
func (s *authSession) Settings() models.ZohoSettings {
	return s.snap
}

// Do runs call, refreshing and retrying once on the session's first 401.
func (s *authSession) Do(ctx context.Context, call func(creds zoho.Credentials) error) error {
	err := call(credentialsOf(s.snap))
	if err == nil || !errors.Is(err, zoho.ErrUnauthorized) || s.refreshed {
		return err
	}

	s.activity.Record(ctx, activity.TypeWarning, "Access token expired, refreshing...", nil)
	if rerr := s.refresh(ctx); rerr != nil {
		return fmt.Errorf("%w: %w", ErrAuthExpired, err)
	}
	return call(credentialsOf(s.snap))
}
