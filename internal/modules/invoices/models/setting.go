package models

import "time"

// Known settings keys.
const (
	SettingAPIDomain       = "apiDomain"
	SettingOrganizationID  = "organizationId"
	SettingAccessToken     = "accessToken"
	SettingRefreshToken    = "refreshToken"
	SettingClientID        = "clientId"
	SettingClientSecret    = "clientSecret"
	SettingTokenExpiresAt  = "tokenExpiresAt"
	SettingWatchFolder     = "watchFolder"
	SettingProcessedFolder = "processedFolder"
	SettingFailedFolder    = "failedFolder"
	SettingWatchEnabled    = "watchEnabled"
)

// SecretSettings are masked when settings are returned over HTTP.
var SecretSettings = map[string]bool{
	SettingAccessToken:  true,
	SettingRefreshToken: true,
	SettingClientSecret: true,
}

// KnownSettings lists every key accepted by the settings endpoint.
var KnownSettings = []string{
	SettingAPIDomain, SettingOrganizationID, SettingAccessToken, SettingRefreshToken,
	SettingClientID, SettingClientSecret, SettingTokenExpiresAt, SettingWatchFolder,
	SettingProcessedFolder, SettingFailedFolder, SettingWatchEnabled,
}

// Setting is a flat key/value row.
type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:text;not null;default:''" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Setting) TableName() string {
	return "settings"
}

// ZohoSettings is an immutable snapshot of connection settings passed into each call.
type ZohoSettings struct {
	APIDomain       string
	OrganizationID  string
	AccessToken     string
	RefreshToken    string
	ClientID        string
	ClientSecret    string
	TokenExpiresAt  time.Time
	WatchFolder     string
	ProcessedFolder string
	FailedFolder    string
	WatchEnabled    bool
}

// CanRefresh reports whether the refresh grant has everything it needs.
func (s ZohoSettings) CanRefresh() bool {
	return s.RefreshToken != "" && s.ClientID != "" && s.ClientSecret != ""
}

// WithAccessToken returns a copy carrying a new token.
func (s ZohoSettings) WithAccessToken(token string, expiresAt time.Time) ZohoSettings {
	s.AccessToken = token
	s.TokenExpiresAt = expiresAt
	return s
}

// Missing lists the connection settings still empty. The access token counts
// as present when it can be obtained by refresh.
func (s ZohoSettings) Missing() []string {
	var missing []string
	if s.APIDomain == "" {
		missing = append(missing, SettingAPIDomain)
	}
	if s.OrganizationID == "" {
		missing = append(missing, SettingOrganizationID)
	}
	if s.AccessToken == "" && !s.CanRefresh() {
		missing = append(missing, SettingAccessToken)
	}
	return missing
}
