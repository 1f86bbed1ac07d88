// Package answer composes the grounded, conversation-aware reply sent back
// to the visitor.
package answer

import (
	"context"
	"strings"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/convstate"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/parsers"
	"github.com/bayai-chat/server/internal/engine/prompts"
)

// Request carries everything the responder needs for one reply.
type Request struct {
	Question    string
	CompanyName string
	Context     string
	History     []model.Turn
	Summary     string
	Recent      []model.Turn
	State       *convstate.State
	Declined    bool
}

// Responder generates replies with the answer model.
type Responder struct {
	gen model.Generator
}

func NewResponder(gen model.Generator) *Responder {
	return &Responder{gen: gen}
}

// Respond produces the reply for req. First turns use the plain grounded
// prompt; later turns add history, summary and stage guidance. It never
// fails: generation errors degrade to the handoff fallback message.
func (r *Responder) Respond(ctx context.Context, req Request) string {
	var sys string
	var err error

	if len(req.History) == 0 {
		sys, err = prompts.RenderMainSystem(ctx, req.CompanyName, req.Context)
	} else {
		historyText := prompts.FormatHistoryWithSummary(req.Summary, req.Recent, 6)
		sys, err = prompts.RenderConversationAware(ctx, req.CompanyName, req.Context, historyText, guidance(req))
	}
	if err != nil {
		logx.Error().Err(err).Msg("Answer prompt render failed")
		return prompts.FallbackMessage
	}

	out, err := r.gen.Generate(ctx, []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(req.Question),
	})
	if err != nil {
		logx.Error().Err(err).Msg("Answer generation failed")
		return prompts.FallbackMessage
	}

	reply := parsers.CleanResponse(out.Content)
	if reply == "" {
		return prompts.FallbackMessage
	}
	return reply
}

// guidance assembles the dynamic instruction block injected into the
// conversation-aware prompt: stage hint, contact collection status and the
// declined-callback guard.
func guidance(req Request) string {
	var lines []string

	if req.State != nil {
		if hint := req.State.StageHint(); hint != "" {
			lines = append(lines, "Stage: "+hint)
		}

		if req.Declined {
			lines = append(lines, "The visitor declined a callback. Do not ask for contact information again; just answer their questions.")
		} else if req.State.NeedsCallback {
			if missing := req.State.MissingContactFields(); len(missing) == 0 {
				lines = append(lines, "Contact info collected: "+req.State.Contact.Name+" at "+req.State.Contact.Phone+". Confirm it back to the visitor.")
			} else {
				lines = append(lines, "Still needed for the callback: "+strings.Join(missing, ", ")+". Ask for one field at a time, naturally.")
			}
			if suggestion := req.State.NextQuestionSuggestion(); suggestion != "" {
				lines = append(lines, "Next: "+suggestion)
			}
		}
	}

	if len(lines) == 0 {
		return "Answer naturally using the provided context."
	}
	return strings.Join(lines, "\n")
}
