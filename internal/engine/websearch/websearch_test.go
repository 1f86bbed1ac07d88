package websearch

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayai-chat/server/internal/engine/model"
)

type stubGenerator struct {
	reply    string
	err      error
	lastMsgs []*schema.Message
}

func (s *stubGenerator) Generate(_ context.Context, msgs []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	s.lastMsgs = msgs
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func TestSearchUsesModelOutput(t *testing.T) {
	gen := &stubGenerator{reply: "We typically respond within one business day."}
	s := NewSearcher(gen)

	got := s.Search(context.Background(), "how fast do you reply to emails?", "Acme", nil)

	assert.Equal(t, "We typically respond within one business day.", got)
}

func TestSearchIncludesRecentHistoryAndQuestion(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	s := NewSearcher(gen)

	history := []model.Turn{
		model.UserTurn("do you sell gift cards?"),
		model.AssistantTurn("Yes, in $25 and $50 amounts."),
	}
	s.Search(context.Background(), "can I buy one online?", "Acme", history)

	require.Len(t, gen.lastMsgs, 4)
	assert.Equal(t, schema.System, gen.lastMsgs[0].Role)
	assert.Equal(t, "do you sell gift cards?", gen.lastMsgs[1].Content)
	assert.Equal(t, schema.Assistant, gen.lastMsgs[2].Role)
	assert.Equal(t, "can I buy one online?", gen.lastMsgs[3].Content)
}

func TestSearchFallsBackOnError(t *testing.T) {
	s := NewSearcher(&stubGenerator{err: errors.New("model unavailable")})

	got := s.Search(context.Background(), "anything", "Acme", nil)

	assert.Equal(t, fallbackAnswer, got)
}

func TestSearchFallsBackOnEmptyOutput(t *testing.T) {
	s := NewSearcher(&stubGenerator{reply: "   "})

	got := s.Search(context.Background(), "anything", "Acme", nil)

	assert.Equal(t, fallbackAnswer, got)
}

func TestGeneralKnowledgeSource(t *testing.T) {
	src := GeneralKnowledgeSource()
	assert.Equal(t, "General Knowledge", src.Title)
	assert.Zero(t, src.Score)
}
