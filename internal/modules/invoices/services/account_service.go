package services

import (
	"context"
	"fmt"
	"time"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
)

// AccountLister fetches the chart of accounts.
type AccountLister interface {
	ListAccounts(ctx context.Context, creds zoho.Credentials) ([]zoho.Account, error)
}

// AccountService keeps the local copy of the chart of accounts and exposes
// learned mappings.
type AccountService struct {
	client      AccountLister
	credentials CredentialSource
	accounts    repositories.AccountRepo
	mappings    repositories.MappingRepo
	activity    ActivityRecorder
}

func NewAccountService(client AccountLister, credentials CredentialSource, accounts repositories.AccountRepo,
	mappings repositories.MappingRepo, recorder ActivityRecorder) *AccountService {
	return &AccountService{
		client:      client,
		credentials: credentials,
		accounts:    accounts,
		mappings:    mappings,
		activity:    recorder,
	}
}

// Refresh replaces the cache with the active accounts.
func (s *AccountService) Refresh(ctx context.Context) ([]models.CachedAccount, error) {
	session, err := newAuthSession(ctx, s.credentials, s.activity)
	if err != nil {
		return nil, err
	}

	var remote []zoho.Account
	err = session.Do(ctx, func(creds zoho.Credentials) error {
		var lerr error
		remote, lerr = s.client.ListAccounts(ctx, creds)
		return lerr
	})
	if err != nil {
		err = classify(err)
		s.activity.Record(ctx, activity.TypeError, "Failed to load accounts: "+HumanMessage(err), nil)
		return nil, err
	}

	now := time.Now()
	cached := make([]models.CachedAccount, 0, len(remote))
	for _, a := range remote {
		if !a.IsActive {
			continue
		}
		cached = append(cached, models.CachedAccount{
			AccountID:   a.AccountID,
			AccountName: a.AccountName,
			AccountType: a.AccountType,
			RefreshedAt: now,
		})
	}

	if err := s.accounts.ReplaceAll(ctx, cached); err != nil {
		return nil, fmt.Errorf("failed to cache accounts: %w", err)
	}
	s.activity.Record(ctx, activity.TypeSuccess, fmt.Sprintf("Loaded %d accounts", len(cached)), nil)
	return cached, nil
}

// List returns the cached accounts.
func (s *AccountService) List(ctx context.Context) ([]models.CachedAccount, error) {
	return s.accounts.List(ctx)
}

// Mappings returns every learned description → account mapping.
func (s *AccountService) Mappings(ctx context.Context) ([]models.AccountMapping, error) {
	return s.mappings.All(ctx)
}
