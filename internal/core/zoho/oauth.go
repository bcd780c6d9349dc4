package zoho

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenURL is the Zoho accounts token endpoint.
const DefaultTokenURL = "https://accounts.zoho.com/oauth/v2/token"

// RefreshRequest holds the refresh-token grant inputs.
type RefreshRequest struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Token is a fresh access token and its expiry.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher exchanges a refresh token for a new access token.
type Refresher struct {
	httpClient *http.Client
}

func NewRefresher() *Refresher {
	return &Refresher{httpClient: &http.Client{Timeout: 60 * time.Second}}
}

// Refresh runs the refresh_token grant with credentials in the form body.
func (r *Refresher) Refresh(ctx context.Context, req RefreshRequest) (*Token, error) {
	if req.RefreshToken == "" || req.ClientID == "" || req.ClientSecret == "" {
		return nil, fmt.Errorf("refresh token, client id and client secret are required")
	}

	tokenURL := req.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	conf := &oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: req.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = req.RefreshToken
	}
	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	return &Token{AccessToken: tok.AccessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}, nil
}
