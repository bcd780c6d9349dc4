package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnknownSetting is returned when Update receives a key it does not manage.
var ErrUnknownSetting = errors.New("unknown setting")

const maskMarker = "****"

const (
	// refreshWindow is how close to expiry a token gets refreshed.
	refreshWindow = 5 * time.Minute
	// blindRefreshAge is how old a token of unknown expiry may get.
	blindRefreshAge = 50 * time.Minute
)

// ActivityRecorder appends to the user-facing activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, typ activity.Type, message string, details map[string]interface{})
}

// TokenRefresher runs the OAuth refresh grant.
type TokenRefresher interface {
	Refresh(ctx context.Context, req zoho.RefreshRequest) (*zoho.Token, error)
}

// CredentialSource hands out settings snapshots and refreshes the access token.
type CredentialSource interface {
	Snapshot(ctx context.Context) (models.ZohoSettings, error)
	RefreshAccessToken(ctx context.Context) (models.ZohoSettings, error)
}

// SettingsService owns the flat key/value settings and the access token lifecycle.
type SettingsService struct {
	repo      repositories.SettingsRepo
	refresher TokenRefresher
	tokenURL  string
	activity  ActivityRecorder
	now       func() time.Time
	logger    zerolog.Logger

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewSettingsService(repo repositories.SettingsRepo, refresher TokenRefresher, tokenURL string, recorder ActivityRecorder) *SettingsService {
	return &SettingsService{
		repo:      repo,
		refresher: refresher,
		tokenURL:  tokenURL,
		activity:  recorder,
		now:       time.Now,
		logger:    log.With().Str("component", "settings").Logger(),
	}
}

// Seed writes defaults for keys that have no stored value yet.
func (s *SettingsService) Seed(ctx context.Context, defaults map[string]string) error {
	current, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	missing := map[string]string{}
	for k, v := range defaults {
		if v != "" && current[k] == "" {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return nil
	}

	s.logger.Info().Int("keys", len(missing)).Msg("seeding settings from environment")
	return s.repo.Set(ctx, missing)
}

// Snapshot returns an immutable copy of the current settings.
func (s *SettingsService) Snapshot(ctx context.Context) (models.ZohoSettings, error) {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return models.ZohoSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	snap := models.ZohoSettings{
		APIDomain:       values[models.SettingAPIDomain],
		OrganizationID:  values[models.SettingOrganizationID],
		AccessToken:     values[models.SettingAccessToken],
		RefreshToken:    values[models.SettingRefreshToken],
		ClientID:        values[models.SettingClientID],
		ClientSecret:    values[models.SettingClientSecret],
		WatchFolder:     values[models.SettingWatchFolder],
		ProcessedFolder: values[models.SettingProcessedFolder],
		FailedFolder:    values[models.SettingFailedFolder],
	}
	if raw := values[models.SettingTokenExpiresAt]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			snap.TokenExpiresAt = t
		}
	}
	snap.WatchEnabled, _ = strconv.ParseBool(values[models.SettingWatchEnabled])

	return snap, nil
}

// Masked returns every known setting with secrets partially hidden.
func (s *SettingsService) Masked(ctx context.Context) (map[string]string, error) {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	out := make(map[string]string, len(models.KnownSettings))
	for _, k := range models.KnownSettings {
		v := values[k]
		if models.SecretSettings[k] {
			v = mask(v)
		}
		out[k] = v
	}
	return out, nil
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return maskMarker
	}
	return v[:4] + maskMarker
}

// Update stores the given values. Masked secrets sent back unchanged are skipped.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	known := map[string]bool{}
	for _, k := range models.KnownSettings {
		known[k] = true
	}

	clean := map[string]string{}
	for k, v := range values {
		if !known[k] {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, k)
		}
		v = strings.TrimSpace(v)
		if models.SecretSettings[k] && strings.Contains(v, maskMarker) {
			continue
		}
		if k == models.SettingWatchEnabled && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: watchEnabled must be true or false", ErrValidationFailure)
			}
			v = strconv.FormatBool(b)
		}
		clean[k] = v
	}

	if err := s.repo.Set(ctx, clean); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.activity.Record(ctx, activity.TypeInfo, "Settings updated", map[string]interface{}{"keys": len(clean)})
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token, stores it and returns the updated snapshot. Concurrent refreshes
// are tolerated; the last write wins.
func (s *SettingsService) RefreshAccessToken(ctx context.Context) (models.ZohoSettings, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return snap, err
	}
	if !snap.CanRefresh() {
		s.activity.Record(ctx, activity.TypeError, "Cannot refresh token: Missing refresh token or client credentials", nil)
		return snap, fmt.Errorf("%w: refresh token or client credentials missing", ErrAuthExpired)
	}

	tok, err := s.refresher.Refresh(ctx, zoho.RefreshRequest{
		TokenURL:     s.tokenURL,
		ClientID:     snap.ClientID,
		ClientSecret: snap.ClientSecret,
		RefreshToken: snap.RefreshToken,
	})
	if err != nil {
		s.activity.Record(ctx, activity.TypeError, "Failed to refresh access token: "+err.Error(), nil)
		return snap, fmt.Errorf("%w: %w", ErrAuthExpired, err)
	}

	update := map[string]string{
		models.SettingAccessToken:    tok.AccessToken,
		models.SettingTokenExpiresAt: tok.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if tok.RefreshToken != "" && tok.RefreshToken != snap.RefreshToken {
		update[models.SettingRefreshToken] = tok.RefreshToken
	}
	if err := s.repo.Set(ctx, update); err != nil {
		return snap, fmt.Errorf("failed to store refreshed token: %w", err)
	}

	s.mu.Lock()
	s.lastRefresh = s.now()
	s.mu.Unlock()

	s.activity.Record(ctx, activity.TypeSuccess, "Access token refreshed successfully", nil)
	return snap.WithAccessToken(tok.AccessToken, tok.ExpiresAt), nil
}

// NeedsRefresh reports whether the token is about to expire, or has an
// unknown expiry and was not refreshed recently.
func (s *SettingsService) NeedsRefresh(snap models.ZohoSettings) bool {
	if !snap.CanRefresh() {
		return false
	}
	now := s.now()
	if !snap.TokenExpiresAt.IsZero() {
		return snap.TokenExpiresAt.Sub(now) <= refreshWindow
	}

	s.mu.Lock()
	last := s.lastRefresh
	s.mu.Unlock()
	return last.IsZero() || now.Sub(last) >= blindRefreshAge
}

// RefreshIfNeeded refreshes the token when NeedsRefresh says so.
func (s *SettingsService) RefreshIfNeeded(ctx context.Context) (bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	if !s.NeedsRefresh(snap) {
		return false, nil
	}
	if _, err := s.RefreshAccessToken(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func credentialsOf(s models.ZohoSettings) zoho.Credentials {
	return zoho.Credentials{
		APIDomain:      s.APIDomain,
		OrganizationID: s.OrganizationID,
		AccessToken:    s.AccessToken,
	}
}
