package perception

import (
	"fmt"

	"ctma/internal/config"
)

// NewClient creates the LLM client selected by cfg.
func NewClient(cfg config.LLMConfig) (LLMClient, error) {
	provider := Provider(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s (set GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY)", provider)
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiClient(GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
