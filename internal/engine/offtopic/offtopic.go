// Package offtopic decides whether a question is outside the company's
// business and produces the polite redirect reply when it is.
package offtopic

import (
	"context"
	"fmt"
	"strings"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/parsers"
	"github.com/bayai-chat/server/internal/engine/prompts"
	"github.com/bayai-chat/server/internal/engine/quick"
)

// RedirectConfidence is the minimum detection confidence required to send
// the redirect reply instead of attempting a web fallback.
const RedirectConfidence = 0.7

const (
	offTopicConfidence = 0.9
	onTopicConfidence  = 0.1
	unknownConfidence  = 0.5
)

// ShouldCheck is the cheap pre-filter run before spending a model call on
// off-topic detection. Questions with decent retrieval evidence, greetings
// and near-empty inputs are on-topic by construction.
func ShouldCheck(question string, retrieval *model.RetrievalResult) bool {
	if quick.IsGreeting(question) {
		return false
	}
	if len(strings.Fields(question)) <= 2 {
		return false
	}
	if retrieval != nil && retrieval.Sufficient {
		return false
	}
	return true
}

// Detector classifies questions with the judgment model.
type Detector struct {
	gen model.Generator
}

func NewDetector(gen model.Generator) *Detector {
	return &Detector{gen: gen}
}

// Detect returns whether the question is off-topic and the confidence that
// it is. When the model call fails it leans on the pre-filter
// signal with low confidence, which keeps the redirect from firing on
// guesswork.
func (d *Detector) Detect(ctx context.Context, question, companyName string, retrieval *model.RetrievalResult, history []model.Turn) (bool, float64) {
	kbContext := ""
	if retrieval != nil {
		kbContext = retrieval.Context
	}
	historyText := prompts.FormatHistory(history, 6)

	sys, err := prompts.RenderOffTopicDetect(ctx, question, kbContext, companyName, historyText)
	if err == nil {
		var out *schema.Message
		out, err = d.gen.Generate(ctx, []*schema.Message{schema.SystemMessage(sys)})
		if err == nil {
			if parsers.ParseTopicLabel(out.Content) {
				return true, offTopicConfidence
			}
			return false, onTopicConfidence
		}
	}

	logx.Warn().Err(err).Msg("Off-topic detection failed, using pre-filter signal")
	return ShouldCheck(question, retrieval), unknownConfidence
}

// RedirectResponse writes the decline-and-pivot reply for an off-topic
// question. On model failure a templated reply keeps the conversation
// moving.
func (d *Detector) RedirectResponse(ctx context.Context, question, companyName string, retrieval *model.RetrievalResult, history []model.Turn) string {
	kbContext := ""
	if retrieval != nil {
		kbContext = retrieval.Context
	}
	historyText := prompts.FormatHistory(history, 6)

	sys, err := prompts.RenderOffTopicRedirect(ctx, question, kbContext, companyName, historyText)
	if err == nil {
		var out *schema.Message
		out, err = d.gen.Generate(ctx, []*schema.Message{schema.SystemMessage(sys)})
		if err == nil {
			if reply := parsers.CleanResponse(out.Content); reply != "" {
				return reply
			}
		}
	}

	logx.Warn().Err(err).Msg("Off-topic redirect generation failed, using templated reply")
	return fmt.Sprintf(
		"That's a bit outside what we do here at %s, but I'd be happy to help with anything about our products or services. What can I help you with?",
		companyName,
	)
}
