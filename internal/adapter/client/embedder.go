package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// maxEmbedBatch is the most texts the embedding endpoint accepts per call.
const maxEmbedBatch = 100

type Embedder struct {
	client *genai.Client
	model  string // e.g., "text-embedding-004"
	dim    int32
}

func NewEmbedder(ctx context.Context, apiKey, model string, dim int) (*Embedder, error) {
	client, err := NewGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return NewEmbedderFromClient(client, model, dim), nil
}

func NewEmbedderFromClient(c *genai.Client, model string, dim int) *Embedder {
	return &Embedder{
		client: c,
		model:  model,
		dim:    int32(dim),
	}
}

func (e *Embedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	out, err := e.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *Embedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		res, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.config())
		if err != nil {
			return nil, err
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(res.Embeddings))
		}
		for _, emb := range res.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

func (e *Embedder) config() *genai.EmbedContentConfig {
	if e.dim <= 0 {
		return nil
	}
	return &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(e.dim)}
}
