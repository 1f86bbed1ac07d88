// Package retrieve turns a search query into grounded knowledge-base
// context for answer generation.
package retrieve

import (
	"context"
	"sort"
	"strings"

	logx "github.com/bayai-chat/server/pkg/logger"

	"github.com/bayai-chat/server/internal/engine/model"
)

const previewChars = 150

// Retriever embeds the query and searches the tenant's namespace in the
// vector index. It never returns an error: retrieval failures degrade to an
// insufficient result so the pipeline can fall back instead of dying.
type Retriever struct {
	embedder model.Embedder
	index    model.VectorIndex
	cfg      model.RetrieverConfig
}

func NewRetriever(embedder model.Embedder, index model.VectorIndex, cfg model.RetrieverConfig) *Retriever {
	return &Retriever{embedder: embedder, index: index, cfg: cfg}
}

// Search returns the assembled context and per-source attribution for the
// query within the company's namespace.
func (r *Retriever) Search(ctx context.Context, query, namespace string) *model.RetrievalResult {
	empty := &model.RetrievalResult{Sources: []model.Source{}}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Str("namespace", namespace).Msg("Query embedding failed")
		return empty
	}

	matches, err := r.index.Query(ctx, vector, r.cfg.TopK, namespace)
	if err != nil {
		logx.Warn().Err(err).Str("namespace", namespace).Msg("Vector search failed")
		return empty
	}

	kept := make([]model.VectorMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score >= r.cfg.Threshold {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	var blocks []string
	sources := make([]model.Source, 0, len(kept))
	for _, m := range kept {
		content := strings.TrimSpace(m.Metadata["content"])
		if len(content) <= 10 {
			continue
		}
		title := m.Metadata["title"]
		if title == "" {
			title = "Untitled"
		}

		blocks = append(blocks, "Source: "+title+"\n"+content)
		sources = append(sources, model.Source{
			Title:          title,
			Score:          m.Score,
			URL:            m.Metadata["url"],
			ContentPreview: preview(content),
		})
	}

	contextText := strings.Join(blocks, "\n\n---\n\n")
	result := &model.RetrievalResult{
		Context:    contextText,
		Sources:    sources,
		Sufficient: len(strings.TrimSpace(contextText)) >= r.cfg.MinContextChars,
	}

	logx.Debug().
		Str("namespace", namespace).
		Int("matches", len(matches)).
		Int("kept", len(kept)).
		Bool("sufficient", result.Sufficient).
		Msg("Retrieval complete")
	return result
}

func preview(content string) string {
	if len(content) <= previewChars {
		return content
	}
	return content[:previewChars] + "..."
}
