package retrieve

import (
	"context"
	"fmt"

	errx "github.com/bayai-chat/server/internal/core/error"
	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/bayai-chat/server/internal/engine/model"
)

// WeaviateIndex queries a multi-tenant Weaviate collection. The tenant is
// the company namespace, so one query can only ever see one company's
// knowledge chunks.
type WeaviateIndex struct {
	client    *weaviate.Client
	className string
}

func NewWeaviateIndex(client *weaviate.Client, className string) *WeaviateIndex {
	return &WeaviateIndex{client: client, className: className}
}

func (w *WeaviateIndex) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]model.VectorMatch, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "title"},
		{Name: "content"},
		{Name: "url"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "certainty"},
		}},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithTenant(namespace).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		logx.Error().Err(err).Str("namespace", namespace).Msg("weaviate query failed")
		return nil, errx.WrapVector(err)
	}
	if len(result.Errors) > 0 {
		err := fmt.Errorf("weaviate graphql: %s", result.Errors[0].Message)
		logx.Error().Err(err).Str("namespace", namespace).Msg("weaviate query returned errors")
		return nil, errx.WrapVector(err)
	}

	return w.parseMatches(result.Data), nil
}

func (w *WeaviateIndex) parseMatches(data map[string]models.JSONObject) []model.VectorMatch {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := get[w.className].([]interface{})
	if !ok {
		return nil
	}

	matches := make([]model.VectorMatch, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		m := model.VectorMatch{Metadata: map[string]string{}}
		for _, field := range []string{"title", "content", "url"} {
			if v, ok := obj[field].(string); ok {
				m.Metadata[field] = v
			}
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				m.ID = id
			}
			if certainty, ok := additional["certainty"].(float64); ok {
				m.Score = certainty
			}
		}
		matches = append(matches, m)
	}
	return matches
}

var _ model.VectorIndex = (*WeaviateIndex)(nil)
