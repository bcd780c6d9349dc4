package models

import (
	"math"
	"strings"
	"time"
)

// DefaultCurrency is used when the invoice does not state one.
const DefaultCurrency = "CAD"

// amountTolerance is the largest difference treated as equal money.
const amountTolerance = 0.01

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Rate        *float64 `json:"rate"`
	Amount      *float64 `json:"amount"`
	AccountID   string   `json:"accountId,omitempty"`
	AccountName string   `json:"accountName,omitempty"`
}

// QuantityOrOne returns the quantity, treating an absent value as 1.
func (l LineItem) QuantityOrOne() float64 {
	if l.Quantity == nil {
		return 1
	}
	return *l.Quantity
}

// RateValue returns the unit price, falling back to amount / quantity.
func (l LineItem) RateValue() float64 {
	if l.Rate != nil {
		return *l.Rate
	}
	if l.Amount != nil {
		q := l.QuantityOrOne()
		if q != 0 {
			return *l.Amount / q
		}
		return *l.Amount
	}
	return 0
}

// ExtractedInvoice is the structured payload read from an invoice document.
// Numbers are pointers so an absent field stays distinguishable from zero.
type ExtractedInvoice struct {
	VendorName      string     `json:"vendorName"`
	InvoiceNumber   string     `json:"invoiceNumber"`
	InvoiceDate     string     `json:"invoiceDate"`
	DueDate         string     `json:"dueDate"`
	ReferenceNumber string     `json:"referenceNumber"`
	Currency        string     `json:"currency"`
	Subtotal        *float64   `json:"subtotal"`
	Tax             *float64   `json:"tax"`
	Total           *float64   `json:"total"`
	Notes           string     `json:"notes"`
	LineItems       []LineItem `json:"lineItems"`
}

// ValidationIssue is a non-fatal problem found in an extracted invoice.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func valueOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// TotalValue returns the invoice total, or 0 when absent.
func (inv *ExtractedInvoice) TotalValue() float64 {
	return valueOf(inv.Total)
}

// TaxValue returns the tax amount, or 0 when absent.
func (inv *ExtractedInvoice) TaxValue() float64 {
	return valueOf(inv.Tax)
}

// CurrencyOrDefault returns the currency code, falling back to fallback and then CAD.
func (inv *ExtractedInvoice) CurrencyOrDefault(fallback string) string {
	if c := strings.TrimSpace(inv.Currency); c != "" {
		return strings.ToUpper(c)
	}
	if fallback != "" {
		return fallback
	}
	return DefaultCurrency
}

// DueDateOrInvoiceDate returns dueDate, defaulting to invoiceDate.
func (inv *ExtractedInvoice) DueDateOrInvoiceDate() string {
	if strings.TrimSpace(inv.DueDate) != "" {
		return inv.DueDate
	}
	return inv.InvoiceDate
}

// Normalize fills defaults after extraction: trimmed text, upper-case currency
// and line amounts computed from quantity × rate when missing.
func (inv *ExtractedInvoice) Normalize(defaultCurrency string) {
	inv.VendorName = strings.TrimSpace(inv.VendorName)
	inv.InvoiceNumber = strings.TrimSpace(inv.InvoiceNumber)
	inv.InvoiceDate = strings.TrimSpace(inv.InvoiceDate)
	inv.DueDate = strings.TrimSpace(inv.DueDate)
	inv.Currency = inv.CurrencyOrDefault(defaultCurrency)

	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		item.Description = strings.TrimSpace(item.Description)
		if item.Amount == nil && item.Rate != nil {
			item.Amount = Float(item.QuantityOrOne() * *item.Rate)
		}
	}
}

// Recalculate recomputes subtotal as Σ quantity×rate and total as subtotal + tax.
func (inv *ExtractedInvoice) Recalculate() {
	subtotal := 0.0
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		lineAmount := item.QuantityOrOne() * item.RateValue()
		item.Amount = Float(round2(lineAmount))
		subtotal += lineAmount
	}
	subtotal = round2(subtotal)
	inv.Subtotal = Float(subtotal)
	inv.Total = Float(round2(subtotal + inv.TaxValue()))
}

// Validate reports missing or inconsistent fields. Issues never block an upload.
func (inv *ExtractedInvoice) Validate() []ValidationIssue {
	var issues []ValidationIssue

	if strings.TrimSpace(inv.VendorName) == "" {
		issues = append(issues, ValidationIssue{Field: "vendorName", Message: "vendor name is missing"})
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		issues = append(issues, ValidationIssue{Field: "invoiceNumber", Message: "invoice number is missing"})
	}
	if strings.TrimSpace(inv.InvoiceDate) == "" {
		issues = append(issues, ValidationIssue{Field: "invoiceDate", Message: "invoice date is missing"})
	} else if _, err := time.Parse("2006-01-02", inv.InvoiceDate); err != nil {
		issues = append(issues, ValidationIssue{Field: "invoiceDate", Message: "invoice date is not in YYYY-MM-DD format"})
	}
	if inv.DueDate != "" {
		if _, err := time.Parse("2006-01-02", inv.DueDate); err != nil {
			issues = append(issues, ValidationIssue{Field: "dueDate", Message: "due date is not in YYYY-MM-DD format"})
		}
	}
	if len(inv.LineItems) == 0 {
		issues = append(issues, ValidationIssue{Field: "lineItems", Message: "no line items found"})
	}
	if inv.Total == nil {
		issues = append(issues, ValidationIssue{Field: "total", Message: "total is missing"})
	} else if inv.Subtotal != nil {
		expected := *inv.Subtotal + inv.TaxValue()
		if math.Abs(expected-*inv.Total) > amountTolerance {
			issues = append(issues, ValidationIssue{Field: "total", Message: "subtotal plus tax does not match total"})
		}
	}

	return issues
}

// SameAmount reports whether a and b differ by less than one cent.
func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < amountTolerance
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
