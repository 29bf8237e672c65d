package client

import (
	"context"
	"errors"
	"reco-core/internal/domain/entity"
	"time"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGenAIClient builds the shared SDK client used by generation and embeddings.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func NewGeminiClientFromClient(c *genai.Client, model string) *GeminiClient {
	return &GeminiClient{
		client:      c,
		model:       model,
		temperature: 0.7,
	}
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (*entity.AIResponse, error) {
	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return nil, err
	}

	text := result.Text()
	if text == "" {
		return nil, errors.New("gemini returned an empty response")
	}

	resp := &entity.AIResponse{
		Content: text,
		Model:   g.model,
		Latency: time.Since(start).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		resp.TokenCount = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}
