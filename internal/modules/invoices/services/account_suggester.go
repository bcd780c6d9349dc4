package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
)

const compositeSeparator = "::"

type keywordCategory struct {
	category string
	terms    []string
}

// staticKeywords is tried in order; specific categories precede generic ones.
var staticKeywords = []keywordCategory{
	{"software", []string{"software", "subscription", "license", "saas"}},
	{"shipping", []string{"shipping", "freight", "delivery", "ship"}},
	{"fee", []string{"fee", "charge", "service"}},
	{"minimum", []string{"minimum", "min"}},
	{"credit card", []string{"credit card", "cc", "payment processing"}},
	{"sticker", []string{"sticker", "label", "packaging"}},
}

var (
	nonKeyChars   = regexp.MustCompile(`[^a-z0-9 ]+`)
	nonLetterWord = regexp.MustCompile(`[^a-z]+`)
)

// NormalizeKey lowercases, keeps [a-z0-9 ] and collapses whitespace.
func NormalizeKey(s string) string {
	s = nonKeyChars.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

// CompositeKey builds the vendor::description mapping key.
func CompositeKey(vendor, description string) string {
	return NormalizeKey(vendor) + compositeSeparator + NormalizeKey(description)
}

// GlobalKeyword returns the first letters-only word longer than 3 characters.
func GlobalKeyword(description string) string {
	for _, w := range strings.Fields(strings.ToLower(description)) {
		w = nonLetterWord.ReplaceAllString(w, "")
		if len(w) > 3 {
			return w
		}
	}
	return ""
}

// AccountSuggester proposes GL accounts for line items and learns from uploads.
type AccountSuggester struct {
	mappings repositories.MappingRepo
	accounts repositories.AccountRepo
}

func NewAccountSuggester(mappings repositories.MappingRepo, accounts repositories.AccountRepo) *AccountSuggester {
	return &AccountSuggester{mappings: mappings, accounts: accounts}
}

// Suggest returns an account id for the description, or "" when nothing fits.
func (s *AccountSuggester) Suggest(ctx context.Context, description, vendorName string) (string, error) {
	mappings, accounts, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return SuggestAccount(description, vendorName, mappings, accounts), nil
}

// SuggestAll fills account id and name on every line item that has none.
func (s *AccountSuggester) SuggestAll(ctx context.Context, inv *models.ExtractedInvoice) error {
	mappings, accounts, err := s.load(ctx)
	if err != nil {
		return err
	}

	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.AccountID] = a.AccountName
	}

	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		if item.AccountID == "" {
			item.AccountID = SuggestAccount(item.Description, inv.VendorName, mappings, accounts)
		}
		if item.AccountID != "" && item.AccountName == "" {
			item.AccountName = names[item.AccountID]
		}
	}
	return nil
}

// Learn stores vendor::description and the coarse global keyword for every
// line with both a description and an account.
func (s *AccountSuggester) Learn(ctx context.Context, vendorName string, items []models.LineItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" || item.AccountID == "" {
			continue
		}
		if NormalizeKey(vendorName) != "" {
			if err := s.mappings.Upsert(ctx, CompositeKey(vendorName, item.Description), item.AccountID); err != nil {
				return fmt.Errorf("failed to save mapping: %w", err)
			}
		}
		if kw := GlobalKeyword(item.Description); kw != "" {
			if err := s.mappings.Upsert(ctx, kw, item.AccountID); err != nil {
				return fmt.Errorf("failed to save mapping: %w", err)
			}
		}
	}
	return nil
}

func (s *AccountSuggester) load(ctx context.Context) ([]models.AccountMapping, []models.CachedAccount, error) {
	mappings, err := s.mappings.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return mappings, accounts, nil
}

// SuggestAccount applies the five tiers in order:
// exact vendor::description, vendor composite contained in the description,
// global keyword contained in the description, static keyword table, expense fallback.
func SuggestAccount(description, vendorName string, mappings []models.AccountMapping, accounts []models.CachedAccount) string {
	desc := NormalizeKey(description)
	vendor := NormalizeKey(vendorName)

	sorted := append([]models.AccountMapping(nil), mappings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	if vendor != "" && desc != "" {
		exact := vendor + compositeSeparator + desc
		for _, m := range sorted {
			if m.Key == exact {
				return m.AccountID
			}
		}

		prefix := vendor + compositeSeparator
		for _, m := range sorted {
			if suffix, ok := strings.CutPrefix(m.Key, prefix); ok && suffix != "" && strings.Contains(desc, suffix) {
				return m.AccountID
			}
		}
	}

	if desc != "" {
		for _, m := range sorted {
			if strings.Contains(m.Key, compositeSeparator) || m.Key == "" {
				continue
			}
			if strings.Contains(desc, m.Key) {
				return m.AccountID
			}
		}
	}

	lowerDesc := strings.ToLower(description)
	for _, kc := range staticKeywords {
		if !containsAny(lowerDesc, kc.terms) {
			continue
		}
		for _, a := range accounts {
			name := strings.ToLower(a.AccountName)
			if strings.Contains(name, kc.category) || strings.Contains(name, kc.terms[0]) {
				return a.AccountID
			}
		}
	}

	for _, a := range accounts {
		if strings.EqualFold(a.AccountType, "expense") || strings.Contains(strings.ToLower(a.AccountName), "expense") {
			return a.AccountID
		}
	}
	return ""
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
