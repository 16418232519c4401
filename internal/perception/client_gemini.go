package perception

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"ctma/internal/logging"
)

// contentGenerator is the slice of the genai models service the client
// uses. *genai.Models satisfies it; tests substitute a fake.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds the settings for a GeminiClient.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	TopP        float32
}

// DefaultGeminiConfig returns the sampling settings the prompts were tuned
// for: low temperature, nucleus 0.95.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-3-pro-preview",
		Temperature: 0.1,
		TopP:        0.95,
	}
}

// GeminiClient implements LLMClient for the Gemini API via the genai SDK.
type GeminiClient struct {
	models      contentGenerator
	model       string
	temperature float32
	topP        float32
}

// NewGeminiClient creates a client for the Gemini Developer API.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiClient(client.Models, cfg), nil
}

func newGeminiClient(models contentGenerator, cfg GeminiConfig) *GeminiClient {
	def := DefaultGeminiConfig(cfg.APIKey)
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = def.TopP
	}
	return &GeminiClient{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string { return c.model }

// Complete sends a prompt without a system instruction.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem makes exactly one GenerateContent call. A response
// with no text yields "" rather than an error.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
		TopP:        genai.Ptr(c.topP),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	logging.APIDebug("gemini: model=%s system_len=%d prompt_len=%d", c.model, len(systemPrompt), len(userPrompt))

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
