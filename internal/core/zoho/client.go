package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const accountsPageSize = 200

// Client is a thin Zoho Books v3 client. It holds no credentials; every call
// receives them.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     log.With().Str("component", "zoho").Logger(),
	}
}

// envelope is the common Zoho response wrapper.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func baseURL(creds Credentials) string {
	return strings.TrimRight(creds.APIDomain, "/") + "/books/v3"
}

func (c *Client) endpoint(creds Credentials, path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("organization_id", creds.OrganizationID)
	return baseURL(creds) + path + "?" + query.Encode()
}

func (c *Client) do(ctx context.Context, creds Credentials, method, endpoint string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+creds.AccessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zoho request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", req.URL.Path).Str("message", apiErr.Message).Msg("zoho call failed")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SearchContacts queries the contact directory. Use field "contact_name" for an
// exact match or "contact_name_contains" for a substring match.
func (c *Client) SearchContacts(ctx context.Context, creds Credentials, field, value string) ([]Contact, error) {
	q := url.Values{}
	q.Set(field, value)

	var resp struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.do(ctx, creds, http.MethodGet, c.endpoint(creds, "/contacts", q), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// CreateContact creates a contact from a JSON body.
func (c *Client) CreateContact(ctx context.Context, creds Credentials, contact NewContact) (*Contact, error) {
	body, err := json.Marshal(contact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact: %w", err)
	}

	var resp struct {
		Contact Contact `json:"contact"`
	}
	if err := c.do(ctx, creds, http.MethodPost, c.endpoint(creds, "/contacts", nil), bytes.NewReader(body), "application/json", &resp); err != nil {
		return nil, err
	}
	if resp.Contact.ContactID == "" {
		return nil, fmt.Errorf("zoho returned no contact id")
	}
	return &resp.Contact, nil
}

// CreateBill posts the bill as form field JSONString.
func (c *Client) CreateBill(ctx context.Context, creds Credentials, bill Bill) (*CreatedBill, error) {
	payload, err := json.Marshal(bill)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bill: %w", err)
	}

	form := url.Values{}
	form.Set("JSONString", string(payload))

	var resp struct {
		Bill CreatedBill `json:"bill"`
	}
	err = c.do(ctx, creds, http.MethodPost, c.endpoint(creds, "/bills", nil),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &resp)
	if err != nil {
		return nil, err
	}
	if resp.Bill.BillID == "" {
		return nil, fmt.Errorf("zoho returned no bill id")
	}

	c.logger.Info().Str("bill_id", resp.Bill.BillID).Str("bill_number", bill.BillNumber).Msg("bill created")
	return &resp.Bill, nil
}

// AttachToBill uploads the original document to an existing bill.
func (c *Client) AttachToBill(ctx context.Context, creds Credentials, billID, fileName, contentType string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachment"; filename="%s"`, escapeQuotes(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	path := "/bills/" + url.PathEscape(billID) + "/attachment"
	return c.do(ctx, creds, http.MethodPost, c.endpoint(creds, path, nil), &buf, w.FormDataContentType(), nil)
}

// ListAccounts returns the whole chart of accounts, following pagination.
func (c *Client) ListAccounts(ctx context.Context, creds Credentials) ([]Account, error) {
	var all []Account
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(accountsPageSize))

		var resp struct {
			Accounts    []Account `json:"chartofaccounts"`
			PageContext struct {
				HasMorePage bool `json:"has_more_page"`
			} `json:"page_context"`
		}
		if err := c.do(ctx, creds, http.MethodGet, c.endpoint(creds, "/chartofaccounts", q), nil, "", &resp); err != nil {
			return nil, err
		}

		all = append(all, resp.Accounts...)
		if !resp.PageContext.HasMorePage || len(resp.Accounts) == 0 {
			break
		}
	}
	return all, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
