package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDocument is returned when a provider cannot read the given content type.
var ErrUnsupportedDocument = errors.New("document type not supported by provider")

// Document is a binary file handed to the model alongside a prompt.
type Document struct {
	Name        string
	ContentType string // application/pdf, image/jpeg, image/png
	Data        []byte
}

// IsPDF reports whether the document is a PDF.
func (d Document) IsPDF() bool {
	return strings.EqualFold(d.ContentType, "application/pdf")
}

// IsImage reports whether the document is a raster image.
func (d Document) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(d.ContentType), "image/")
}

// LLMProvider is implemented by every model backend.
type LLMProvider interface {
	// ReadDocument sends a document plus instructions and returns the model's text answer.
	ReadDocument(ctx context.Context, doc Document, instructions string) (string, error)
	GetProviderName() string
}

// ProviderType selects the backend NewProvider builds.
type ProviderType string

const (
	ProviderClaude ProviderType = "claude"
	ProviderOpenAI ProviderType = "openai"
)

// ProviderConfig is the input to NewProvider.
type ProviderConfig struct {
	Type ProviderType

	ClaudeKey string
	OpenAIKey string

	Model       string
	Temperature float32
	MaxTokens   int

	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL string
}

// NewProvider builds the configured backend.
func NewProvider(cfg *ProviderConfig) (LLMProvider, error) {
	switch cfg.Type {
	case ProviderClaude, "":
		if cfg.ClaudeKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required")
		}
		p := NewClaudeProvider(cfg.ClaudeKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if cfg.BaseURL != "" {
			p.baseURL = cfg.BaseURL
		}
		return p, nil

	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.BaseURL), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
}
