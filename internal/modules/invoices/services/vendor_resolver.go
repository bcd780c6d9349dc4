package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// VendorMode selects what happens when no existing vendor matches.
type VendorMode string

const (
	VendorModeAuto    VendorMode = "auto"
	VendorModeConfirm VendorMode = "confirm"
)

// MatchThreshold is the lowest score treated as the same vendor.
const MatchThreshold = 0.8

// VendorMatchCandidate is a scored contact.
type VendorMatchCandidate struct {
	ContactID string  `json:"contactId"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

// VendorResolution is the outcome of Resolve.
type VendorResolution struct {
	VendorID    string  `json:"vendorId"`
	MatchedName string  `json:"vendorName"`
	Score       float64 `json:"score"`
	Created     bool    `json:"created"`
	NotFound    bool    `json:"notFound"`
}

// VendorDetails is the user-confirmed data for a new vendor.
type VendorDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

// ContactDirectory is the part of the accounting client used for vendors.
type ContactDirectory interface {
	SearchContacts(ctx context.Context, creds zoho.Credentials, field, value string) ([]zoho.Contact, error)
	CreateContact(ctx context.Context, creds zoho.Credentials, contact zoho.NewContact) (*zoho.Contact, error)
}

type VendorResolver struct {
	contacts ContactDirectory
	mode     VendorMode
	logger   zerolog.Logger
}

func NewVendorResolver(contacts ContactDirectory, mode VendorMode) *VendorResolver {
	if mode != VendorModeConfirm {
		mode = VendorModeAuto
	}
	return &VendorResolver{
		contacts: contacts,
		mode:     mode,
		logger:   log.With().Str("component", "vendor_resolver").Logger(),
	}
}

// Mode returns the configured mode.
func (r *VendorResolver) Mode() VendorMode {
	return r.mode
}

// NormalizeVendorName uppercases, drops punctuation and collapses whitespace.
func NormalizeVendorName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CalculateSimilarity returns 1.0 for equal normalized names, 0.8 when one
// contains the other, and 0 otherwise.
func CalculateSimilarity(a, b string) float64 {
	na, nb := NormalizeVendorName(a), NormalizeVendorName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}
	return 0
}

type contactQuery struct {
	field string
	value string
}

// vendorQueries lists lookups in merge order, skipping repeats.
func vendorQueries(name string) []contactQuery {
	words := strings.Fields(name)
	candidates := []contactQuery{
		{"contact_name", name},
		{"contact_name", strings.ToUpper(name)},
	}
	if len(words) > 0 {
		n := 3
		if len(words) < n {
			n = len(words)
		}
		candidates = append(candidates,
			contactQuery{"contact_name_contains", strings.Join(words[:n], " ")},
			contactQuery{"contact_name_contains", words[0]},
		)
	}

	seen := map[contactQuery]bool{}
	var queries []contactQuery
	for _, q := range candidates {
		if q.value == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

// Candidates runs every lookup and returns the vendor contacts, deduplicated
// by id in merge order and scored against name.
func (r *VendorResolver) Candidates(ctx context.Context, creds zoho.Credentials, name string) ([]VendorMatchCandidate, error) {
	seen := map[string]bool{}
	var out []VendorMatchCandidate

	for _, q := range vendorQueries(name) {
		contacts, err := r.contacts.SearchContacts(ctx, creds, q.field, q.value)
		if err != nil {
			return nil, err
		}
		for _, c := range contacts {
			if !c.IsVendorContact() || seen[c.ContactID] {
				continue
			}
			seen[c.ContactID] = true
			out = append(out, VendorMatchCandidate{
				ContactID: c.ContactID,
				Name:      c.ContactName,
				Score:     CalculateSimilarity(name, c.ContactName),
			})
		}
	}
	return out, nil
}

// BestMatch returns the highest-scoring candidate; on a tie the earlier one wins.
func BestMatch(candidates []VendorMatchCandidate) *VendorMatchCandidate {
	var best *VendorMatchCandidate
	for i := range candidates {
		if best == nil || candidates[i].Score > best.Score {
			best = &candidates[i]
		}
	}
	return best
}

// Resolve finds the vendor for name. With no match it creates one in auto
// mode, or reports NotFound in confirm mode.
func (r *VendorResolver) Resolve(ctx context.Context, creds zoho.Credentials, name string) (*VendorResolution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: vendor name is empty", ErrVendorResolution)
	}

	candidates, err := r.Candidates(ctx, creds, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVendorResolution, err)
	}

	if best := BestMatch(candidates); best != nil && best.Score >= MatchThreshold {
		r.logger.Info().Str("vendor", name).Str("matched", best.Name).Float64("score", best.Score).Msg("vendor matched")
		return &VendorResolution{VendorID: best.ContactID, MatchedName: best.Name, Score: best.Score}, nil
	}

	if r.mode == VendorModeConfirm {
		r.logger.Info().Str("vendor", name).Int("candidates", len(candidates)).Msg("vendor not found, confirmation required")
		return &VendorResolution{MatchedName: name, NotFound: true}, nil
	}

	return r.CreateVendor(ctx, creds, VendorDetails{Name: name})
}

// CreateVendor creates a vendor contact with an uppercased name.
func (r *VendorResolver) CreateVendor(ctx context.Context, creds zoho.Credentials, details VendorDetails) (*VendorResolution, error) {
	name := strings.ToUpper(strings.TrimSpace(details.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: vendor name is empty", ErrVendorResolution)
	}

	contact := zoho.NewContact{
		ContactName:  name,
		ContactType:  "vendor",
		CurrencyCode: strings.ToUpper(strings.TrimSpace(details.Currency)),
		Phone:        details.Phone,
	}
	if details.Email != "" || details.Phone != "" {
		contact.ContactPersons = []zoho.ContactPerson{{Email: details.Email, Phone: details.Phone, IsPrimaryContact: true}}
	}
	if details.Address != "" {
		contact.BillingAddress = &zoho.Address{Address: details.Address}
	}

	created, err := r.contacts.CreateContact(ctx, creds, contact)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVendorResolution, err)
	}

	r.logger.Info().Str("vendor", name).Str("contact_id", created.ContactID).Msg("vendor created")
	return &VendorResolution{VendorID: created.ContactID, MatchedName: created.ContactName, Created: true}, nil
}
