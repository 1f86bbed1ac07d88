package graph

import (
	"context"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayai-chat/server/internal/engine/answer"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/offtopic"
	"github.com/bayai-chat/server/internal/engine/retrieve"
	"github.com/bayai-chat/server/internal/engine/rewrite"
	"github.com/bayai-chat/server/internal/engine/websearch"
)

// scriptedGenerator answers based on which prompt it was handed, so one
// stub can serve every judgment and answer role in the pipeline.
type scriptedGenerator struct {
	topicLabel    string
	rewriteReply  string
	redirectReply string
	webReply      string
	ragReply      string
}

func (s *scriptedGenerator) Generate(_ context.Context, msgs []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	sys := ""
	if len(msgs) > 0 && msgs[0] != nil {
		sys = msgs[0].Content
	}
	switch {
	case strings.Contains(sys, "ON_TOPIC or OFF_TOPIC"):
		return schema.AssistantMessage(s.topicLabel, nil), nil
	case strings.Contains(sys, "declines the topic"):
		return schema.AssistantMessage(s.redirectReply, nil), nil
	case strings.Contains(sys, "blend your general knowledge"):
		return schema.AssistantMessage(s.webReply, nil), nil
	case strings.Contains(sys, "CONTEXT FROM KNOWLEDGE BASE"):
		return schema.AssistantMessage(s.ragReply, nil), nil
	default:
		return schema.AssistantMessage(s.rewriteReply, nil), nil
	}
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type recordingIndex struct {
	matches []model.VectorMatch
	queries int
}

func (r *recordingIndex) Query(_ context.Context, _ []float32, _ int, _ string) ([]model.VectorMatch, error) {
	r.queries++
	return r.matches, nil
}

func buildTestRunner(t *testing.T, gen *scriptedGenerator, index *recordingIndex) Runner {
	t.Helper()

	components := &Components{
		Rewriter:    rewrite.NewRewriter(gen, model.DefaultConversationConfig()),
		Retriever:   retrieve.NewRetriever(stubEmbedder{}, index, model.DefaultRetrieverConfig()),
		Detector:    offtopic.NewDetector(gen),
		WebSearcher: websearch.NewSearcher(gen),
		Responder:   answer.NewResponder(gen),
	}
	runnable, err := BuildGraph(context.Background(), components)
	require.NoError(t, err)
	return &graphRunner{runnable: runnable}
}

func defaultGen() *scriptedGenerator {
	return &scriptedGenerator{
		topicLabel:    "ON_TOPIC",
		rewriteReply:  "standalone question",
		redirectReply: "That's outside what we do, but we can help with injury cases. What happened?",
		webReply:      "We usually respond within a day.",
		ragReply:      "Our basic plan is $29/month.",
	}
}

func goodMatches() []model.VectorMatch {
	return []model.VectorMatch{{
		ID:    "doc-1",
		Score: 0.85,
		Metadata: map[string]string{
			"title":   "Pricing",
			"content": "The basic plan costs $29 per month and includes unlimited seats.",
		},
	}}
}

func TestFarewellShortCircuitsWithoutRetrieval(t *testing.T) {
	index := &recordingIndex{matches: goodMatches()}
	runner := buildTestRunner(t, defaultGen(), index)

	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "ok thanks, goodbye!",
		Namespace:   "company-a",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeQuickResponse, out.Mode)
	assert.NotEmpty(t, out.Answer)
	assert.Zero(t, index.queries)
	assert.Empty(t, out.Sources)
}

func TestSufficientRetrievalProducesGroundedAnswer(t *testing.T) {
	index := &recordingIndex{matches: goodMatches()}
	runner := buildTestRunner(t, defaultGen(), index)

	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "how much is the basic plan?",
		Namespace:   "company-a",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeRAG, out.Mode)
	assert.Equal(t, "Our basic plan is $29/month.", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "Pricing", out.Sources[0].Title)
	assert.False(t, out.QueryRewritten)
	assert.False(t, out.OffTopic)
	assert.Equal(t, 1, index.queries)
}

func TestInsufficientRetrievalFallsBackToGeneralKnowledge(t *testing.T) {
	index := &recordingIndex{}
	runner := buildTestRunner(t, defaultGen(), index)

	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "how quickly do you usually respond to emails?",
		Namespace:   "company-a",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeWebFallback, out.Mode)
	assert.Equal(t, "We usually respond within a day.", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "General Knowledge", out.Sources[0].Title)
}

func TestWebFallbackReplacesPartialRetrievalSources(t *testing.T) {
	// Above-threshold match whose context is still too short to answer
	// from. The fallback answer must not cite it.
	index := &recordingIndex{matches: []model.VectorMatch{{
		ID:    "doc-1",
		Score: 0.9,
		Metadata: map[string]string{
			"title":   "Hours",
			"content": "Open weekdays.",
		},
	}}}
	runner := buildTestRunner(t, defaultGen(), index)

	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "how quickly do you usually respond to emails?",
		Namespace:   "company-a",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeWebFallback, out.Mode)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "General Knowledge", out.Sources[0].Title)
	assert.Zero(t, out.Sources[0].Score)
}

func TestOffTopicQuestionGetsRedirect(t *testing.T) {
	gen := defaultGen()
	gen.topicLabel = "OFF_TOPIC"
	index := &recordingIndex{}
	runner := buildTestRunner(t, gen, index)

	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "what's the best pizza place in town?",
		Namespace:   "company-a",
		CompanyName: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeOffTopicRedirect, out.Mode)
	assert.True(t, out.OffTopic)
	assert.Equal(t, gen.redirectReply, out.Answer)
	assert.Empty(t, out.Sources)
}

func TestFollowUpQuestionIsRewrittenBeforeRetrieval(t *testing.T) {
	gen := defaultGen()
	gen.rewriteReply = "does the basic plan include support?"
	index := &recordingIndex{matches: goodMatches()}
	runner := buildTestRunner(t, gen, index)

	history := []model.Turn{
		model.UserTurn("tell me about your pricing"),
		model.AssistantTurn("Our basic plan is $29/month."),
	}
	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "does it include support?",
		Namespace:   "company-a",
		CompanyName: "Acme",
		History:     history,
		Recent:      history,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ModeRAG, out.Mode)
	assert.True(t, out.QueryRewritten)
}

func TestCallbackRequestSurfacesContactState(t *testing.T) {
	index := &recordingIndex{matches: goodMatches()}
	runner := buildTestRunner(t, defaultGen(), index)

	history := []model.Turn{
		model.UserTurn("I was hurt in an accident, can someone call me back?"),
		model.AssistantTurn("Of course. What's your name?"),
		model.UserTurn("I'm Sarah Johnson, my number is 555-987-6543"),
		model.AssistantTurn("Thanks Sarah, we'll be in touch."),
	}
	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "when can I expect the call about my accident claim?",
		Namespace:   "company-a",
		CompanyName: "Acme",
		History:     history,
		Recent:      history,
	})

	require.NoError(t, err)
	assert.True(t, out.NeedsCallback)
	assert.Equal(t, "Sarah Johnson", out.Contact.Name)
	assert.Equal(t, "(555) 987-6543", out.Contact.Phone)
	assert.True(t, out.LeadCollected)
}

func TestHasSummaryFlagPropagates(t *testing.T) {
	index := &recordingIndex{matches: goodMatches()}
	runner := buildTestRunner(t, defaultGen(), index)

	recent := []model.Turn{
		model.UserTurn("and what about enterprise pricing?"),
		model.AssistantTurn("Enterprise plans start at $99/month."),
	}
	out, err := runner.Invoke(context.Background(), model.QueryInput{
		SessionID:   "s1",
		Question:    "how much is the basic plan?",
		Namespace:   "company-a",
		CompanyName: "Acme",
		History:     recent,
		Summary:     "Visitor compared plans and asked about discounts.",
		Recent:      recent,
	})

	require.NoError(t, err)
	assert.True(t, out.HasSummary)
}
