package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ModelTier selects which underlying model serves a call: the fast tier
// handles extraction and chunk summaries, the deep tier the final scoring.
type ModelTier string

const (
	TierFast ModelTier = "fast"
	TierDeep ModelTier = "deep"
)

// ModelService abstracts the model provider so orchestration code never
// hardcodes model identifiers and tests can substitute a mock.
type ModelService interface {
	GenerateText(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error)
}

type geminiService struct {
	client *genai.Client
	models map[ModelTier]string
}

func NewGeminiService(apiKey string) (ModelService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client: client,
		models: map[ModelTier]string{
			TierFast: "gemini-2.5-flash-lite",
			TierDeep: "gemini-2.5-flash",
		},
	}, nil
}

// GenerateText implements ModelService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}
	return g.generate(ctx, prompt, tier, config)
}

// GenerateJSON implements ModelService. It requests the provider's JSON
// response mode; markdown fences are still stripped downstream because
// models wrap output in them anyway.
func (g *geminiService) GenerateJSON(ctx context.Context, prompt string, tier ModelTier, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}
	return g.generate(ctx, prompt, tier, config)
}

func (g *geminiService) generate(ctx context.Context, prompt string, tier ModelTier, config *genai.GenerateContentConfig) (string, error) {
	modelName, ok := g.models[tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %q", tier)
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}
