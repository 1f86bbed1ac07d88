// Package websearch answers from the model's general knowledge when the
// knowledge base comes up short for an on-topic question.
package websearch

import (
	"context"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/parsers"
	"github.com/bayai-chat/server/internal/engine/prompts"
)

const fallbackAnswer = "I'm sorry, I don't have that information at the moment. Is there anything else I can help you with?"

// GeneralKnowledgeSource is the attribution attached to answers that came
// from the model rather than the knowledge base.
func GeneralKnowledgeSource() model.Source {
	return model.Source{Title: "General Knowledge", Score: 0.0}
}

// Searcher produces the general-knowledge fallback answer.
type Searcher struct {
	gen model.Generator
}

func NewSearcher(gen model.Generator) *Searcher {
	return &Searcher{gen: gen}
}

// Search answers the question from general knowledge, keeping the recent
// conversation in view so follow-ups stay coherent. It never fails: when
// the model is unavailable a short apologetic reply is returned.
func (s *Searcher) Search(ctx context.Context, question, companyName string, history []model.Turn) string {
	sys, err := prompts.RenderWebFallback(ctx, companyName)
	if err == nil {
		msgs := []*schema.Message{schema.SystemMessage(sys)}
		msgs = append(msgs, model.ToMessages(model.TrimTail(history, 6))...)
		msgs = append(msgs, schema.UserMessage(question))

		var out *schema.Message
		out, err = s.gen.Generate(ctx, msgs)
		if err == nil {
			if answer := parsers.CleanResponse(out.Content); answer != "" {
				return answer
			}
		}
	}

	logx.Warn().Err(err).Msg("Web fallback generation failed, using apologetic reply")
	return fallbackAnswer
}
