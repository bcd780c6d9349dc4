package llm

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Service is the configured model backend handed to the extractor.
type Service struct {
	provider LLMProvider
}

// NewService creates the LLM service from explicit configuration.
func NewService(cfg *ProviderConfig) (*Service, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Str("provider", provider.GetProviderName()).Str("model", cfg.Model).Msg("LLM provider ready")
	return &Service{provider: provider}, nil
}

// ReadDocument passes a document to the provider.
func (s *Service) ReadDocument(ctx context.Context, doc Document, instructions string) (string, error) {
	return s.provider.ReadDocument(ctx, doc, instructions)
}

// GetProviderName returns current provider name
func (s *Service) GetProviderName() string {
	return s.provider.GetProviderName()
}
