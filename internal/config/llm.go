package config

// ProviderGemini is the only supported inference backend.
const ProviderGemini = "gemini"

// LLMConfig configures the inference client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	// Timeout bounds a single call ("90s"). Empty means the call may run
	// until the caller's context ends.
	Timeout string `yaml:"timeout"`
}

// DefaultLLMConfig returns the sampling settings the prompts were tuned for.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderGemini,
		Model:       "gemini-3-pro-preview",
		Temperature: 0.1,
		TopP:        0.95,
	}
}
