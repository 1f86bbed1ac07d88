// Package prompts renders the engine's prompt templates via the Eino
// prompt component so prompt callbacks fire on every render. The exact
// wording lives in embedded template files; only the placeholder contract
// is load-bearing.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
)

//go:embed template/main_system.txt
var mainSystemPrompt string

//go:embed template/conversation_aware.txt
var conversationAwarePrompt string

//go:embed template/query_rewrite.txt
var queryRewritePrompt string

//go:embed template/summarize.txt
var summarizePrompt string

//go:embed template/progressive_summarize.txt
var progressiveSummarizePrompt string

//go:embed template/off_topic_detect.txt
var offTopicDetectPrompt string

//go:embed template/off_topic_redirect.txt
var offTopicRedirectPrompt string

//go:embed template/web_fallback.txt
var webFallbackPrompt string

// FallbackMessage is the user-facing reply when no context is available
// and every generation path has failed.
const FallbackMessage = "I don't have that information right now. Would you like me to connect you with someone who can help?"

func render(ctx context.Context, tpl string, vars map[string]any) (string, error) {
	t := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tpl),
	)
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderMainSystem builds the first-turn answer prompt.
func RenderMainSystem(ctx context.Context, companyName, kbContext string) (string, error) {
	return render(ctx, mainSystemPrompt, map[string]any{
		"CompanyName": safeCompany(companyName),
		"Context":     kbContext,
	})
}

// RenderConversationAware builds the history-aware answer prompt. The
// guidance block carries stage hints and contact-collection status.
func RenderConversationAware(ctx context.Context, companyName, kbContext, historyText, guidance string) (string, error) {
	return render(ctx, conversationAwarePrompt, map[string]any{
		"CompanyName": safeCompany(companyName),
		"Context":     kbContext,
		"ChatHistory": historyText,
		"Guidance":    guidance,
	})
}

func RenderQueryRewrite(ctx context.Context, historyText, question string) (string, error) {
	return render(ctx, queryRewritePrompt, map[string]any{
		"ChatHistory": historyText,
		"Question":    question,
	})
}

func RenderSummarize(ctx context.Context, historyText string) (string, error) {
	return render(ctx, summarizePrompt, map[string]any{
		"ChatHistory": historyText,
	})
}

func RenderProgressiveSummarize(ctx context.Context, existingSummary, newTurns string) (string, error) {
	return render(ctx, progressiveSummarizePrompt, map[string]any{
		"ExistingSummary": existingSummary,
		"NewTurns":        newTurns,
	})
}

func RenderOffTopicDetect(ctx context.Context, question, kbContext, companyName, historyText string) (string, error) {
	return render(ctx, offTopicDetectPrompt, map[string]any{
		"Question":    question,
		"Context":     kbContext,
		"CompanyName": safeCompany(companyName),
		"ChatHistory": historyText,
	})
}

func RenderOffTopicRedirect(ctx context.Context, question, kbContext, companyName, historyText string) (string, error) {
	return render(ctx, offTopicRedirectPrompt, map[string]any{
		"Question":    question,
		"Context":     kbContext,
		"CompanyName": safeCompany(companyName),
		"ChatHistory": historyText,
	})
}

func RenderWebFallback(ctx context.Context, companyName string) (string, error) {
	return render(ctx, webFallbackPrompt, map[string]any{
		"CompanyName": safeCompany(companyName),
	})
}

// FormatHistory renders turns as "User:"/"Assistant:" lines, keeping at
// most maxMessages of the most recent messages (0 keeps all).
func FormatHistory(turns []model.Turn, maxMessages int) string {
	if len(turns) == 0 {
		return "No previous conversation"
	}
	recent := model.TrimTail(turns, maxMessages)
	lines := make([]string, 0, len(recent))
	for _, t := range recent {
		switch t.Role {
		case model.RoleUser:
			lines = append(lines, "User: "+t.Content)
		case model.RoleAssistant:
			lines = append(lines, "Assistant: "+t.Content)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatHistoryWithSummary combines a rolling summary of older turns with
// the verbatim recent window.
func FormatHistoryWithSummary(summary string, recent []model.Turn, maxRecent int) string {
	var parts []string

	if summary != "" {
		parts = append(parts, "=== Previous Context ===", summary, "")
	}
	if len(recent) > 0 {
		if summary != "" {
			parts = append(parts, "=== Recent Conversation ===")
		}
		parts = append(parts, FormatHistory(recent, maxRecent))
	}

	if len(parts) == 0 {
		return "No previous conversation"
	}
	return strings.Join(parts, "\n")
}

// safeCompany keeps prompts readable when the tenant record carries an
// auto-generated "<owner>'s Organization" display name.
func safeCompany(name string) string {
	if name == "" {
		return "our company"
	}
	name = strings.ReplaceAll(name, "'s Organization", "")
	name = strings.ReplaceAll(name, "'s organization", "")
	return strings.TrimSpace(name)
}
