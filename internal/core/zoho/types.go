package zoho

// Credentials identify the organization and carry the current access token.
type Credentials struct {
	APIDomain      string
	OrganizationID string
	AccessToken    string
}

// Contact is a Zoho Books contact (customer or vendor).
type Contact struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	ContactType string `json:"contact_type"`
	IsVendor    bool   `json:"is_vendor,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// IsVendorContact reports whether the contact can receive bills.
func (c Contact) IsVendorContact() bool {
	return c.ContactType == "vendor" || c.IsVendor
}

// NewContact is the body of a contact create call.
type NewContact struct {
	ContactName    string          `json:"contact_name"`
	ContactType    string          `json:"contact_type"`
	CurrencyCode   string          `json:"currency_code,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	ContactPersons []ContactPerson `json:"contact_persons,omitempty"`
	BillingAddress *Address        `json:"billing_address,omitempty"`
}

type ContactPerson struct {
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	IsPrimaryContact bool   `json:"is_primary_contact"`
}

type Address struct {
	Address string `json:"address,omitempty"`
}

// BillLineItem is one line of a bill payload.
type BillLineItem struct {
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
	Quantity    float64 `json:"quantity"`
	AccountID   string  `json:"account_id,omitempty"`
	ItemOrder   int     `json:"item_order"`
}

// Bill is the body of a bill create call.
type Bill struct {
	VendorID              string         `json:"vendor_id"`
	BillNumber            string         `json:"bill_number"`
	Date                  string         `json:"date"`
	DueDate               string         `json:"due_date,omitempty"`
	ReferenceNumber       string         `json:"reference_number,omitempty"`
	CurrencyCode          string         `json:"currency_code,omitempty"`
	LineItems             []BillLineItem `json:"line_items"`
	Notes                 string         `json:"notes,omitempty"`
	Adjustment            float64        `json:"adjustment,omitempty"`
	AdjustmentDescription string         `json:"adjustment_description,omitempty"`
}

// CreatedBill is the part of the bill create answer the service uses.
type CreatedBill struct {
	BillID     string  `json:"bill_id"`
	BillNumber string  `json:"bill_number"`
	Total      float64 `json:"total"`
}

// Account is a chart-of-accounts entry.
type Account struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	AccountType string `json:"account_type"`
	IsActive    bool   `json:"is_active"`
}
