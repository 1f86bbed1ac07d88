package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayai-chat/server/internal/engine/model"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubIndex struct {
	byNamespace map[string][]model.VectorMatch
	err         error
	lastTopK    int
}

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int, namespace string) ([]model.VectorMatch, error) {
	s.lastTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.byNamespace[namespace], nil
}

func match(title, content string, score float64) model.VectorMatch {
	return model.VectorMatch{
		ID:       title,
		Score:    score,
		Metadata: map[string]string{"title": title, "content": content},
	}
}

func TestSearchFiltersByThresholdAndRanks(t *testing.T) {
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {
			match("Shipping", "We ship worldwide within 5 business days of purchase.", 0.55),
			match("Returns", "Thirty day return window.", 0.30),
			match("History", "Founded in 1999.", 0.20),
		},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "do you ship internationally?", "company-a")

	require.Len(t, got.Sources, 1)
	assert.Equal(t, "Shipping", got.Sources[0].Title)
	assert.InDelta(t, 0.55, got.Sources[0].Score, 1e-9)
	assert.True(t, got.Sufficient)
	assert.Contains(t, got.Context, "Source: Shipping")
	assert.NotContains(t, got.Context, "Returns")
	assert.Equal(t, 3, index.lastTopK)
}

func TestSearchOrdersSourcesByScoreDescending(t *testing.T) {
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {
			match("Low", "Some moderately relevant content about plans.", 0.45),
			match("High", "Highly relevant content about plans and pricing.", 0.90),
		},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "pricing", "company-a")

	require.Len(t, got.Sources, 2)
	assert.Equal(t, "High", got.Sources[0].Title)
	assert.Equal(t, "Low", got.Sources[1].Title)
	assert.True(t, strings.Index(got.Context, "High") < strings.Index(got.Context, "Low"))
}

func TestSearchNamespaceIsolation(t *testing.T) {
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {match("A Doc", "Content belonging to company A only.", 0.8)},
		"company-b": {match("B Doc", "Content belonging to company B only.", 0.8)},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	gotA := r.Search(context.Background(), "docs", "company-a")
	gotB := r.Search(context.Background(), "docs", "company-b")

	require.Len(t, gotA.Sources, 1)
	require.Len(t, gotB.Sources, 1)
	assert.Equal(t, "A Doc", gotA.Sources[0].Title)
	assert.Equal(t, "B Doc", gotB.Sources[0].Title)
	assert.NotContains(t, gotA.Context, "company B")
}

func TestSearchInsufficientWhenContextTooShort(t *testing.T) {
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {match("Returns", "Thirty day window.", 0.9)},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	require.Len(t, got.Sources, 1)
	assert.False(t, got.Sufficient)
}

func TestSearchSkipsNearEmptyPassages(t *testing.T) {
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {
			match("Tiny", "Yes.", 0.9),
			match("Blank", "   \n  ", 0.8),
			match("Shipping", "We ship worldwide within 5 business days of purchase.", 0.7),
		},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	require.Len(t, got.Sources, 1)
	assert.Equal(t, "Shipping", got.Sources[0].Title)
	assert.NotContains(t, got.Context, "Tiny")
	assert.True(t, got.Sufficient)
}

func TestSearchSufficiencyIgnoresSurroundingWhitespace(t *testing.T) {
	padded := "Short answer here." + strings.Repeat(" ", 80)
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {match("Padded", padded, 0.9)},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	require.Len(t, got.Sources, 1)
	assert.False(t, got.Sufficient)
}

func TestSearchEmptyNamespaceResults(t *testing.T) {
	r := NewRetriever(&stubEmbedder{}, &stubIndex{byNamespace: map[string][]model.VectorMatch{}}, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	assert.Empty(t, got.Sources)
	assert.Empty(t, got.Context)
	assert.False(t, got.Sufficient)
}

func TestSearchDegradesOnEmbedderFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{err: errors.New("embedding unavailable")}, &stubIndex{}, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	require.NotNil(t, got)
	assert.False(t, got.Sufficient)
	assert.Empty(t, got.Sources)
}

func TestSearchDegradesOnIndexFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{}, &stubIndex{err: errors.New("weaviate down")}, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "anything", "company-a")

	require.NotNil(t, got)
	assert.False(t, got.Sufficient)
	assert.Empty(t, got.Sources)
}

func TestSearchContentPreviewTruncated(t *testing.T) {
	long := strings.Repeat("pricing details ", 20)
	index := &stubIndex{byNamespace: map[string][]model.VectorMatch{
		"company-a": {match("Pricing", long, 0.8)},
	}}
	r := NewRetriever(&stubEmbedder{}, index, model.DefaultRetrieverConfig())

	got := r.Search(context.Background(), "pricing", "company-a")

	require.Len(t, got.Sources, 1)
	assert.Len(t, got.Sources[0].ContentPreview, previewChars+3)
	assert.True(t, strings.HasSuffix(got.Sources[0].ContentPreview, "..."))
}
