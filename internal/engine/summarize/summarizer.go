// Package summarize maintains the rolling conversation summary that keeps
// long sessions inside the prompt window without losing earlier facts.
package summarize

import (
	"context"
	"strings"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/parsers"
	"github.com/bayai-chat/server/internal/engine/prompts"
)

// ShouldSummarize reports whether the message count has crossed the
// summarization threshold.
func ShouldSummarize(messageCount, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	return messageCount >= threshold
}

// Split divides history into the older portion to be summarized and the
// recent window kept verbatim. recentTurns is in turns (user+assistant
// pairs).
func Split(history []model.Turn, recentTurns int) (older, recent []model.Turn) {
	keep := recentTurns * 2
	if keep <= 0 || keep >= len(history) {
		return nil, history
	}
	return history[:len(history)-keep], history[len(history)-keep:]
}

// Summarizer condenses conversation turns with the judgment model.
type Summarizer struct {
	gen model.Generator
}

func NewSummarizer(gen model.Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize condenses turns into a short paragraph. It never fails: when the
// model is unavailable the most recent turns are returned verbatim so the
// session still carries context forward.
func (s *Summarizer) Summarize(ctx context.Context, turns []model.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	historyText := prompts.FormatHistory(turns, 0)
	sys, err := prompts.RenderSummarize(ctx, historyText)
	if err == nil {
		var out *schema.Message
		out, err = s.gen.Generate(ctx, []*schema.Message{schema.SystemMessage(sys)})
		if err == nil {
			if summary := parsers.CleanResponse(out.Content); summary != "" {
				return summary
			}
		}
	}

	logx.Warn().Err(err).Msg("Summarization failed, keeping recent turns verbatim")
	return prompts.FormatHistory(turns, 6)
}

// ProgressiveSummarize folds newTurns into an existing summary. With no
// existing summary it behaves like Summarize. On failure the new turns are
// appended to the old summary so nothing is dropped.
func (s *Summarizer) ProgressiveSummarize(ctx context.Context, existing string, newTurns []model.Turn) string {
	if existing == "" {
		return s.Summarize(ctx, newTurns)
	}
	if len(newTurns) == 0 {
		return existing
	}

	newText := prompts.FormatHistory(newTurns, 0)
	sys, err := prompts.RenderProgressiveSummarize(ctx, existing, newText)
	if err == nil {
		var out *schema.Message
		out, err = s.gen.Generate(ctx, []*schema.Message{schema.SystemMessage(sys)})
		if err == nil {
			if summary := parsers.CleanResponse(out.Content); summary != "" {
				return summary
			}
		}
	}

	logx.Warn().Err(err).Msg("Progressive summarization failed, appending turns to summary")
	return strings.TrimSpace(existing + "\n" + newText)
}
