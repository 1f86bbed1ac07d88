package model

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the narrow chat-completion surface the engine needs from a
// chat model. *gemini.ChatModel satisfies it.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Embedder turns text into a fixed-length vector compatible with the
// vectors stored in the tenant namespace.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorMatch is one ranked nearest-neighbor hit with its metadata.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorIndex is the tenant-partitioned nearest-neighbor index. The
// namespace parameter is the tenant isolation boundary: implementations
// must never return matches from another namespace.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]VectorMatch, error)
}
