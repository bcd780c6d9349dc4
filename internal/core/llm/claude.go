package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const claudeDefaultBaseURL = "https://api.anthropic.com"

type ClaudeProvider struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	baseURL     string
	client      *http.Client
}

func NewClaudeProvider(apiKey string, model string, temperature float32, maxTokens int) *ClaudeProvider {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &ClaudeProvider{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     claudeDefaultBaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *ClaudeProvider) GetProviderName() string {
	return "Anthropic Claude"
}

// Claude API request/response structures
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeContentBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ReadDocument sends a PDF as a document block, or an image as an image block.
func (p *ClaudeProvider) ReadDocument(ctx context.Context, doc Document, instructions string) (string, error) {
	var blockType string
	switch {
	case doc.IsPDF():
		blockType = "document"
	case doc.IsImage():
		blockType = "image"
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, doc.ContentType)
	}

	blocks := []claudeContentBlock{
		{
			Type: blockType,
			Source: &claudeSource{
				Type:      "base64",
				MediaType: strings.ToLower(doc.ContentType),
				Data:      base64.StdEncoding.EncodeToString(doc.Data),
			},
		},
		{Type: "text", Text: instructions},
	}
	return p.send(ctx, blocks)
}

func (p *ClaudeProvider) send(ctx context.Context, blocks []claudeContentBlock) (string, error) {
	url := p.baseURL + "/v1/messages"

	reqBody := claudeRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: blocks},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: "claude", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	// The first text block carries the answer.
	for _, c := range claudeResp.Content {
		if c.Type == "text" || c.Type == "" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("no text response from Claude")
}

// StatusError is a non-2xx answer from a model endpoint.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status: %d): %s", e.Provider, e.StatusCode, e.Body)
}
