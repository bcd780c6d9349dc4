package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiringAccounts struct {
	fakeAccounts
	rejectFirst bool
	calls       int
}

func (f *expiringAccounts) ListAccounts(ctx context.Context, creds zoho.Credentials) ([]zoho.Account, error) {
	f.calls++
	if f.rejectFirst && f.calls == 1 {
		return nil, unauthorized()
	}
	return f.fakeAccounts.ListAccounts(ctx, creds)
}

func chartOfAccounts() []zoho.Account {
	return []zoho.Account{
		{AccountID: "A1", AccountName: "Office Supplies", AccountType: "expense", IsActive: true},
		{AccountID: "A2", AccountName: "Old Travel", AccountType: "expense", IsActive: false},
		{AccountID: "A3", AccountName: "Software", AccountType: "expense", IsActive: true},
	}
}

func TestAccountService_RefreshKeepsActiveAccounts(t *testing.T) {
	settings, _, _ := newTestSettings(completeSettings())
	repo := &fakeAccountRepo{}
	recorder := &fakeRecorder{}
	svc := NewAccountService(&fakeAccounts{accounts: chartOfAccounts()}, settings, repo, &fakeMappingRepo{}, recorder)

	cached, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "A1", cached[0].AccountID)
	assert.Equal(t, "A3", cached[1].AccountID)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, 1, recorder.count(activity.TypeSuccess))
}

func TestAccountService_RefreshRetriesAfterExpiredToken(t *testing.T) {
	settings, _, refresher := newTestSettings(completeSettings())
	client := &expiringAccounts{fakeAccounts: fakeAccounts{accounts: chartOfAccounts()}, rejectFirst: true}
	svc := NewAccountService(client, settings, &fakeAccountRepo{}, &fakeMappingRepo{}, &fakeRecorder{})

	cached, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1, refresher.calls)
}

func TestAccountService_RefreshFailureKeepsCache(t *testing.T) {
	settings, _, _ := newTestSettings(completeSettings())
	repo := &fakeAccountRepo{accounts: []models.CachedAccount{{AccountID: "KEEP"}}}
	recorder := &fakeRecorder{}
	svc := NewAccountService(&fakeAccounts{err: errors.New("connection reset")}, settings, repo, &fakeMappingRepo{}, recorder)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNetworkOrUnknown)
	require.Len(t, repo.accounts, 1)
	assert.Equal(t, "KEEP", repo.accounts[0].AccountID)
	assert.Equal(t, 1, recorder.count(activity.TypeError))
}

func TestAccountService_RefreshNeedsSettings(t *testing.T) {
	settings, _, _ := newTestSettings(map[string]string{})
	svc := NewAccountService(&fakeAccounts{}, settings, &fakeAccountRepo{}, &fakeMappingRepo{}, &fakeRecorder{})

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSettingsIncomplete)
}

func TestAccountService_Mappings(t *testing.T) {
	settings, _, _ := newTestSettings(completeSettings())
	mappings := &fakeMappingRepo{values: map[string]string{"acme::paper": "A1"}}
	svc := NewAccountService(&fakeAccounts{}, settings, &fakeAccountRepo{}, mappings, &fakeRecorder{})

	all, err := svc.Mappings(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A1", all[0].AccountID)
}
