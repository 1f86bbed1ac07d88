package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayai-chat/server/internal/engine/model"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func turns(n int) []model.Turn {
	out := make([]model.Turn, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, model.UserTurn("user message"))
		} else {
			out = append(out, model.AssistantTurn("assistant message"))
		}
	}
	return out
}

func TestShouldSummarize(t *testing.T) {
	assert.False(t, ShouldSummarize(11, 12))
	assert.True(t, ShouldSummarize(12, 12))
	assert.True(t, ShouldSummarize(40, 12))
	assert.False(t, ShouldSummarize(100, 0))
}

func TestSplitKeepsRecentWindowVerbatim(t *testing.T) {
	history := turns(10)

	older, recent := Split(history, 3)

	require.Len(t, recent, 6)
	require.Len(t, older, 4)
	assert.Equal(t, history[4:], recent)
}

func TestSplitShortHistoryIsAllRecent(t *testing.T) {
	history := turns(4)

	older, recent := Split(history, 3)

	assert.Nil(t, older)
	assert.Equal(t, history, recent)
}

func TestSummarizeUsesModelOutput(t *testing.T) {
	s := NewSummarizer(&stubGenerator{reply: "Visitor asked about pricing; assistant quoted the basic plan."})

	got := s.Summarize(context.Background(), turns(8))

	assert.Equal(t, "Visitor asked about pricing; assistant quoted the basic plan.", got)
}

func TestSummarizeFallsBackToVerbatimTurns(t *testing.T) {
	s := NewSummarizer(&stubGenerator{err: errors.New("model unavailable")})

	got := s.Summarize(context.Background(), turns(8))

	assert.Contains(t, got, "User: user message")
	assert.Contains(t, got, "Assistant: assistant message")
}

func TestSummarizeEmptyHistory(t *testing.T) {
	s := NewSummarizer(&stubGenerator{reply: "should not be used"})
	assert.Empty(t, s.Summarize(context.Background(), nil))
}

func TestProgressiveSummarizeMergesIntoExisting(t *testing.T) {
	s := NewSummarizer(&stubGenerator{reply: "Visitor asked about pricing and then about refunds."})

	got := s.ProgressiveSummarize(context.Background(), "Visitor asked about pricing.", turns(2))

	assert.Equal(t, "Visitor asked about pricing and then about refunds.", got)
}

func TestProgressiveSummarizeNeverDropsContent(t *testing.T) {
	s := NewSummarizer(&stubGenerator{err: errors.New("model unavailable")})

	got := s.ProgressiveSummarize(context.Background(), "Visitor asked about pricing.", turns(2))

	assert.True(t, strings.HasPrefix(got, "Visitor asked about pricing."))
	assert.Contains(t, got, "User: user message")
}

func TestProgressiveSummarizeNoNewTurns(t *testing.T) {
	s := NewSummarizer(&stubGenerator{reply: "should not be used"})

	got := s.ProgressiveSummarize(context.Background(), "Existing summary.", nil)

	assert.Equal(t, "Existing summary.", got)
}
