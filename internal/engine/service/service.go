// Package service owns the session lifecycle around the engine graph:
// loading memory, invoking the pipeline, persisting the exchange and
// maintaining the rolling summary.
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	logx "github.com/bayai-chat/server/pkg/logger"

	"github.com/bayai-chat/server/internal/engine/graph"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/summarize"
)

const errorAnswer = "I'm sorry, something went wrong on our end. Please try again in a moment."

// ChatRequest is one inbound visitor message.
type ChatRequest struct {
	SessionID   string
	Question    string
	Namespace   string
	CompanyName string
}

// ChatSessionService drives the engine for widget sessions. Process never
// returns an error: failures surface as an error-mode result so the widget
// always has something to show.
type ChatSessionService struct {
	runner     graph.Runner
	store      model.SessionStore
	summarizer *summarize.Summarizer
	cfg        model.ConversationConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChatSessionService(runner graph.Runner, store model.SessionStore, summarizer *summarize.Summarizer, cfg model.ConversationConfig) *ChatSessionService {
	return &ChatSessionService{
		runner:     runner,
		store:      store,
		summarizer: summarizer,
		cfg:        cfg,
		locks:      map[string]*sync.Mutex{},
	}
}

// sessionLock serializes processing per session so concurrent messages
// cannot interleave their history writes.
func (s *ChatSessionService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Process runs one message through the engine and records the exchange.
// A missing session ID starts a fresh session.
func (s *ChatSessionService) Process(ctx context.Context, req ChatRequest) *model.EngineResult {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("History load failed, continuing without it")
		history = nil
	}
	summary, _, err := s.store.Summary(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Summary load failed, continuing without it")
		summary = ""
	}
	_, recent := summarize.Split(history, s.cfg.RecentTurns)

	out, err := s.runner.Invoke(ctx, model.QueryInput{
		SessionID:   sessionID,
		Question:    req.Question,
		Namespace:   req.Namespace,
		CompanyName: req.CompanyName,
		History:     history,
		Summary:     summary,
		Recent:      recent,
	})
	if err != nil || out == nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Engine invocation failed")
		return &model.EngineResult{
			Answer:    errorAnswer,
			Sources:   []model.Source{},
			Mode:      model.ModeError,
			SessionID: sessionID,
		}
	}

	if err := s.store.AppendTurns(ctx, sessionID,
		model.UserTurn(req.Question),
		model.AssistantTurn(out.Answer),
	); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Failed to persist exchange")
	} else {
		s.maybeSummarize(ctx, sessionID)
	}

	logx.Debug().
		Str("session_id", sessionID).
		Str("mode", string(out.Mode)).
		Float64("cost_usd", out.TotalCostUSD).
		Msg("Message processed")
	return out
}

// maybeSummarize folds turns leaving the recency window into the rolling
// summary once the conversation crosses the threshold.
func (s *ChatSessionService) maybeSummarize(ctx context.Context, sessionID string) {
	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Summarization skipped, history load failed")
		return
	}
	count := len(history)
	if !summarize.ShouldSummarize(count, s.cfg.SummarizeThreshold) {
		return
	}

	existing, covered, err := s.store.Summary(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Summarization skipped, summary load failed")
		return
	}

	older, _ := summarize.Split(history, s.cfg.RecentTurns)
	if len(older) == 0 {
		return
	}

	delta := count - covered
	if delta <= 0 {
		// Once the sliding window is full the count stops moving; fold the
		// exchange that just crossed the recency boundary.
		if count < s.cfg.WindowTurns*2 {
			return
		}
		delta = 2
	}
	if delta > len(older) {
		delta = len(older)
	}

	text := s.summarizer.ProgressiveSummarize(ctx, existing, older[len(older)-delta:])
	if err := s.store.SetSummary(ctx, sessionID, text, count); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to store summary")
		return
	}
	logx.Debug().Str("session_id", sessionID).Int("covered", count).Msg("Session summarized")
}

// SessionHistory returns the stored turn history for a session.
func (s *ChatSessionService) SessionHistory(ctx context.Context, sessionID string) ([]model.Turn, error) {
	return s.store.History(ctx, sessionID)
}

// ClearSession removes all stored state for a session.
func (s *ChatSessionService) ClearSession(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
