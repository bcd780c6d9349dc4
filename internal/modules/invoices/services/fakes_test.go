package services

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/llm"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
)

func unauthorized() error {
	return &zoho.APIError{StatusCode: http.StatusUnauthorized, Code: 57, Message: "You are not authorized to perform this operation"}
}

type recordedActivity struct {
	Type    activity.Type
	Message string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (f *fakeRecorder) Record(ctx context.Context, typ activity.Type, message string, details map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedActivity{Type: typ, Message: message})
}

func (f *fakeRecorder) count(typ activity.Type) int {
	n := 0
	for _, e := range f.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type fakeContacts struct {
	contacts     []zoho.Contact
	searches     int
	created      []zoho.NewContact
	unauthorized int
	tokens       []string
	searchErr    error
}

func (f *fakeContacts) SearchContacts(ctx context.Context, creds zoho.Credentials, field, value string) ([]zoho.Contact, error) {
	f.searches++
	f.tokens = append(f.tokens, creds.AccessToken)
	if f.unauthorized > 0 {
		f.unauthorized--
		return nil, unauthorized()
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	var out []zoho.Contact
	for _, c := range f.contacts {
		switch field {
		case "contact_name":
			if strings.EqualFold(c.ContactName, value) {
				out = append(out, c)
			}
		default:
			if strings.Contains(strings.ToLower(c.ContactName), strings.ToLower(value)) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeContacts) CreateContact(ctx context.Context, creds zoho.Credentials, contact zoho.NewContact) (*zoho.Contact, error) {
	f.created = append(f.created, contact)
	c := zoho.Contact{
		ContactID:   fmt.Sprintf("V-%d", len(f.contacts)+1),
		ContactName: contact.ContactName,
		ContactType: contact.ContactType,
	}
	f.contacts = append(f.contacts, c)
	return &c, nil
}

type fakeBills struct {
	createErrs []error
	calls      int
	bills      []zoho.Bill
	tokens     []string
	attachErr  error
	attached   []string
}

func (f *fakeBills) CreateBill(ctx context.Context, creds zoho.Credentials, bill zoho.Bill) (*zoho.CreatedBill, error) {
	f.calls++
	f.tokens = append(f.tokens, creds.AccessToken)
	f.bills = append(f.bills, bill)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &zoho.CreatedBill{BillID: fmt.Sprintf("B-%d", f.calls), BillNumber: bill.BillNumber}, nil
}

func (f *fakeBills) AttachToBill(ctx context.Context, creds zoho.Credentials, billID, fileName, contentType string, data []byte) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached = append(f.attached, billID)
	return nil
}

type fakeAccounts struct {
	accounts []zoho.Account
	err      error
}

func (f *fakeAccounts) ListAccounts(ctx context.Context, creds zoho.Credentials) ([]zoho.Account, error) {
	return f.accounts, f.err
}

type fakeRefresher struct {
	calls int
	token string
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, req zoho.RefreshRequest) (*zoho.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &zoho.Token{AccessToken: f.token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type fakeExtractor struct {
	invoice *models.ExtractedInvoice
	err     error
}

func (f *fakeExtractor) Extract(ctx context.Context, doc llm.Document) (*models.ExtractedInvoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv := *f.invoice
	inv.LineItems = append([]models.LineItem(nil), f.invoice.LineItems...)
	return &inv, nil
}

type fakeSettingsRepo struct {
	values map[string]string
}

func (f *fakeSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettingsRepo) Set(ctx context.Context, values map[string]string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}

type fakeTransactionRepo struct {
	rows []models.Transaction
}

func (f *fakeTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.ProcessedAt.IsZero() {
		tx.ProcessedAt = time.Now()
	}
	f.rows = append(f.rows, *tx)
	return nil
}

func (f *fakeTransactionRepo) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	all, _ := f.ListAll(ctx, filter)
	end := filter.Offset() + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	if filter.Offset() >= len(all) {
		return nil, int64(len(all)), nil
	}
	return all[filter.Offset():end], int64(len(all)), nil
}

func (f *fakeTransactionRepo) ListAll(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.rows {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && t.ProcessedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && t.ProcessedAt.After(*filter.DateTo) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProcessedAt.After(out[j].ProcessedAt) })
	return out, nil
}

func (f *fakeTransactionRepo) FindCandidates(ctx context.Context, vendorName, invoiceNumber string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.rows {
		if strings.EqualFold(t.VendorName, vendorName) && t.InvoiceNumber == invoiceNumber {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) Clear(ctx context.Context) (int64, error) {
	n := int64(len(f.rows))
	f.rows = nil
	return n, nil
}

func (f *fakeTransactionRepo) withStatus(status string) []models.Transaction {
	var out []models.Transaction
	for _, t := range f.rows {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

type fakeMappingRepo struct {
	values map[string]string
}

func (f *fakeMappingRepo) Get(ctx context.Context, key string) (*models.AccountMapping, error) {
	if id, ok := f.values[key]; ok {
		return &models.AccountMapping{Key: key, AccountID: id}, nil
	}
	return nil, nil
}

func (f *fakeMappingRepo) All(ctx context.Context) ([]models.AccountMapping, error) {
	var out []models.AccountMapping
	for k, v := range f.values {
		out = append(out, models.AccountMapping{Key: k, AccountID: v})
	}
	return out, nil
}

func (f *fakeMappingRepo) Upsert(ctx context.Context, key, accountID string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = accountID
	return nil
}

type fakeAccountRepo struct {
	accounts []models.CachedAccount
}

func (f *fakeAccountRepo) ReplaceAll(ctx context.Context, accounts []models.CachedAccount) error {
	f.accounts = append([]models.CachedAccount(nil), accounts...)
	return nil
}

func (f *fakeAccountRepo) List(ctx context.Context) ([]models.CachedAccount, error) {
	return f.accounts, nil
}

type fakeStagedRepo struct {
	rows []models.StagedImport
}

func (f *fakeStagedRepo) CreateIfAbsent(ctx context.Context, imp *models.StagedImport) (bool, error) {
	for _, r := range f.rows {
		if r.SourcePath == imp.SourcePath && r.Size == imp.Size && r.ModTime.Equal(imp.ModTime) {
			return false, nil
		}
	}
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}
	f.rows = append(f.rows, *imp)
	return true, nil
}

func (f *fakeStagedRepo) ListUnfetched(ctx context.Context) ([]models.StagedImport, error) {
	var out []models.StagedImport
	for _, r := range f.rows {
		if r.FetchedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStagedRepo) MarkFetched(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].FetchedAt = &now
		}
	}
	return nil
}

func completeSettings() map[string]string {
	return map[string]string{
		models.SettingAPIDomain:      "https://www.zohoapis.com",
		models.SettingOrganizationID: "60001234",
		models.SettingAccessToken:    "1000.old-token",
		models.SettingRefreshToken:   "1000.refresh",
		models.SettingClientID:       "client",
		models.SettingClientSecret:   "secret",
	}
}
