// Package rewrite resolves pronouns and elliptical follow-ups into
// standalone search queries before retrieval.
package rewrite

import (
	"context"
	"regexp"
	"strings"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/parsers"
	"github.com/bayai-chat/server/internal/engine/prompts"
)

var pronounPattern = regexp.MustCompile(`(?i)\b(it|that|this|they|them|those|these|he|she|its|their)\b`)

// Word-bounded so "also" does not fire inside longer words.
var followUpPattern = regexp.MustCompile(`(?i)\b(also|what else|anything else)\b`)

var contextPhrases = []string{
	"what about",
	"how about",
	"and the",
	"tell me more",
	"more about",
	"the same",
	"the other",
}

// ShouldRewrite reports whether the question likely depends on conversation
// context. Standalone questions skip the rewrite call entirely.
func ShouldRewrite(question string, history []model.Turn) bool {
	if len(history) < 2 {
		return false
	}
	if pronounPattern.MatchString(question) || followUpPattern.MatchString(question) {
		return true
	}
	lower := strings.ToLower(question)
	for _, phrase := range contextPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Rewriter turns context-dependent questions into standalone ones using the
// judgment model.
type Rewriter struct {
	gen         model.Generator
	windowTurns int
}

func NewRewriter(gen model.Generator, cfg model.ConversationConfig) *Rewriter {
	return &Rewriter{gen: gen, windowTurns: cfg.RewriteTurns}
}

// Rewrite returns the standalone form of question. On any failure, or when
// the model echoes something unusable, the original question is returned so
// retrieval always has a query to work with.
func (r *Rewriter) Rewrite(ctx context.Context, question string, history []model.Turn) string {
	if !ShouldRewrite(question, history) {
		return question
	}

	historyText := prompts.FormatHistory(history, r.windowTurns*2)
	sys, err := prompts.RenderQueryRewrite(ctx, historyText, question)
	if err != nil {
		logx.Warn().Err(err).Msg("Query rewrite prompt failed, using original query")
		return question
	}

	out, err := r.gen.Generate(ctx, []*schema.Message{schema.SystemMessage(sys)})
	if err != nil {
		logx.Warn().Err(err).Msg("Query rewrite failed, using original query")
		return question
	}

	rewritten := parsers.CleanQuery(out.Content)
	if rewritten == "" || len(rewritten) > 4*len(question)+200 {
		return question
	}

	logx.Debug().
		Str("original", question).
		Str("rewritten", rewritten).
		Msg("Query rewritten")
	return rewritten
}
