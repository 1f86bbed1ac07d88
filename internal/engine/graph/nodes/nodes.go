package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/bayai-chat/server/internal/engine/answer"
	"github.com/bayai-chat/server/internal/engine/convstate"
	"github.com/bayai-chat/server/internal/engine/extract"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/offtopic"
	"github.com/bayai-chat/server/internal/engine/quick"
	"github.com/bayai-chat/server/internal/engine/retrieve"
	"github.com/bayai-chat/server/internal/engine/rewrite"
	"github.com/bayai-chat/server/internal/engine/websearch"
	logx "github.com/bayai-chat/server/pkg/logger"
)

// Node names used when wiring the graph.
const (
	NodeClassify         = "classify"
	NodeRewrite          = "rewrite"
	NodeRetrieve         = "retrieve"
	NodeWebSearch        = "web_search"
	NodeOffTopicRedirect = "off_topic_redirect"
	NodeAnswer           = "answer"
)

// snapshot copies the graph state for use outside state handlers. Model
// calls must not run inside ProcessState, so nodes read a snapshot first,
// do their work, then write results back in a second ProcessState.
func snapshot(ctx context.Context) (model.ChatState, error) {
	var snap model.ChatState
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
		snap = *s
		return nil
	})
	return snap, err
}

// NewClassifyPreHandler seeds the graph state from the inbound query.
func NewClassifyPreHandler() func(context.Context, model.QueryInput, *model.ChatState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.ChatState) (model.QueryInput, error) {
		s.SessionID = in.SessionID
		s.Namespace = in.Namespace
		s.CompanyName = in.CompanyName
		s.Question = in.Question
		s.OriginalQuestion = in.Question
		s.History = in.History
		s.Summary = in.Summary
		s.Recent = in.Recent
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewClassifyNode analyzes the inbound message: it folds the history into
// the conversation state and short-circuits pure farewells with a canned
// reply so no model or retrieval call is spent on them.
func NewClassifyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (*model.EngineResult, error) {
		var result *model.EngineResult

		// Analysis is pure, so it can run inside the state handler.
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			cs := convstate.Analyze(s.History, s.Question)
			s.Stage = string(cs.Stage)
			s.StageHint = cs.StageHint()
			s.Contact = cs.Contact
			s.NeedsCallback = cs.NeedsCallback
			s.ContactConfirmed = cs.CallbackConfirmed
			s.DeclinedCallback = convstate.DeclinedCallback(s.History)

			if reply := quick.Response(s.Question); reply != "" {
				s.SkipSearch = true
				result = buildResult(s, reply, nil, model.ModeQuickResponse)
				logx.Debug().Str("session_id", s.SessionID).Msg("Quick response short-circuit")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		if result != nil {
			return result, nil
		}
		// Placeholder for the search path; downstream nodes work off state.
		return &model.EngineResult{SessionID: in.SessionID}, nil
	})
}

// NewSkipSearchCondition routes farewells straight to the end of the graph.
func NewSkipSearchCondition() func(context.Context, *model.EngineResult) (string, error) {
	return func(ctx context.Context, _ *model.EngineResult) (string, error) {
		var skip bool
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			skip = s.SkipSearch
			return nil
		}); err != nil {
			return "", err
		}
		if skip {
			return compose.END, nil
		}
		return NodeRewrite, nil
	}
}

// NewRewriteNode resolves context-dependent questions into standalone
// search queries.
func NewRewriteNode(rewriter *rewrite.Rewriter) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *model.EngineResult) (string, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return "", err
		}

		query := rewriter.Rewrite(ctx, snap.Question, snap.History)

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			if query != s.OriginalQuestion {
				s.Question = query
				s.Rewritten = true
			}
			return nil
		}); err != nil {
			return "", err
		}
		return query, nil
	})
}

// NewRetrieveNode searches the tenant's namespace for grounding context.
func NewRetrieveNode(retriever *retrieve.Retriever) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, query string) (*model.RetrievalResult, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}

		rr := retriever.Search(ctx, query, snap.Namespace)

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			s.Context = rr.Context
			s.Sources = rr.Sources
			return nil
		}); err != nil {
			return nil, err
		}
		return rr, nil
	})
}

// NewRetrievalCondition is the single ordered gate after retrieval:
// sufficient evidence goes straight to the answer; otherwise the off-topic
// detector decides between the redirect and the general-knowledge fallback.
func NewRetrievalCondition(detector *offtopic.Detector) func(context.Context, *model.RetrievalResult) (string, error) {
	return func(ctx context.Context, rr *model.RetrievalResult) (string, error) {
		if rr.Sufficient {
			return NodeAnswer, nil
		}

		snap, err := snapshot(ctx)
		if err != nil {
			return "", err
		}

		next := NodeWebSearch
		offTopic, redirect := false, false
		if offtopic.ShouldCheck(snap.Question, rr) {
			var confidence float64
			offTopic, confidence = detector.Detect(ctx, snap.Question, snap.CompanyName, rr, snap.History)
			if offTopic && confidence > offtopic.RedirectConfidence {
				redirect = true
				next = NodeOffTopicRedirect
			}
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			s.OffTopic = offTopic
			s.Redirect = redirect
			s.UseWebSearch = !redirect
			return nil
		}); err != nil {
			return "", err
		}

		logx.Debug().Str("next", next).Bool("off_topic", offTopic).Msg("Routing after retrieval")
		return next, nil
	}
}

// NewWebSearchNode answers from general knowledge when the knowledge base
// is insufficient. The reply is carried forward in the retrieval result so
// the answer node can pass it through without a second generation call.
func NewWebSearchNode(searcher *websearch.Searcher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, rr *model.RetrievalResult) (*model.RetrievalResult, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}

		reply := searcher.Search(ctx, snap.OriginalQuestion, snap.CompanyName, snap.History)
		rr.Context = reply
		rr.FromWeb = true
		// Partial retrieval hits did not inform this answer, so they must
		// not be cited alongside it.
		rr.Sources = []model.Source{websearch.GeneralKnowledgeSource()}

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			s.Sources = rr.Sources
			return nil
		}); err != nil {
			return nil, err
		}
		return rr, nil
	})
}

// NewOffTopicRedirectNode writes the decline-and-pivot reply for clearly
// off-topic questions.
func NewOffTopicRedirectNode(detector *offtopic.Detector) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, rr *model.RetrievalResult) (*model.EngineResult, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}

		reply := detector.RedirectResponse(ctx, snap.OriginalQuestion, snap.CompanyName, rr, snap.History)

		// Re-read so the accumulated cost of the redirect call is included.
		snap, err = snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return buildResult(&snap, reply, nil, model.ModeOffTopicRedirect), nil
	})
}

// NewAnswerNode composes the final grounded reply. Web-fallback results
// pass through unchanged; everything else goes through the answer model.
func NewAnswerNode(responder *answer.Responder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, rr *model.RetrievalResult) (*model.EngineResult, error) {
		snap, err := snapshot(ctx)
		if err != nil {
			return nil, err
		}

		if rr.FromWeb {
			return buildResult(&snap, rr.Context, rr.Sources, model.ModeWebFallback), nil
		}

		reply := responder.Respond(ctx, answer.Request{
			Question:    snap.OriginalQuestion,
			CompanyName: snap.CompanyName,
			Context:     rr.Context,
			History:     snap.History,
			Summary:     snap.Summary,
			Recent:      snap.Recent,
			State:       stateSnapshot(&snap),
			Declined:    snap.DeclinedCallback,
		})

		snap, err = snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return buildResult(&snap, reply, rr.Sources, model.ModeRAG), nil
	})
}

// stateSnapshot rebuilds a convstate.State from the graph state so the
// responder sees the same stage and contact record the classify node
// computed.
func stateSnapshot(s *model.ChatState) *convstate.State {
	cs := convstate.New()
	cs.Stage = convstate.Stage(s.Stage)
	cs.Contact = s.Contact
	cs.NeedsCallback = s.NeedsCallback
	cs.CallbackConfirmed = s.ContactConfirmed
	return cs
}

func buildResult(s *model.ChatState, reply string, sources []model.Source, mode model.Mode) *model.EngineResult {
	if sources == nil {
		sources = []model.Source{}
	}
	return &model.EngineResult{
		Answer:           reply,
		Sources:          sources,
		Mode:             mode,
		SessionID:        s.SessionID,
		QueryRewritten:   s.Rewritten,
		HasSummary:       s.Summary != "",
		OffTopic:         s.OffTopic || mode == model.ModeOffTopicRedirect,
		Stage:            s.Stage,
		Contact:          s.Contact,
		NeedsCallback:    s.NeedsCallback,
		ContactConfirmed: s.ContactConfirmed,
		LeadCollected:    s.NeedsCallback && len(extract.MissingFields(s.Contact)) == 0,
		TotalCostUSD:     s.TotalCostUSD,
	}
}
