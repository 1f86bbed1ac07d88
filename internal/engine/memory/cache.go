package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bayai-chat/server/internal/engine/model"
)

type cachedSession struct {
	Turns          []model.Turn
	SummaryText    string
	SummaryCovered int
}

// CacheSessionStore keeps session state in process memory with per-session
// expiry. It backs single-node deployments and tests where Redis is not
// available; state is lost on restart.
type CacheSessionStore struct {
	cache       *gocache.Cache
	ttl         time.Duration
	maxMessages int

	mu sync.Mutex
}

func NewCacheSessionStore(cfg model.ConversationConfig) *CacheSessionStore {
	ttl := cfg.TTLDuration()
	return &CacheSessionStore{
		cache:       gocache.New(ttl, 2*ttl),
		ttl:         ttl,
		maxMessages: cfg.WindowTurns * 2,
	}
}

func (c *CacheSessionStore) load(sessionID string) cachedSession {
	if v, ok := c.cache.Get(sessionID); ok {
		if s, ok := v.(cachedSession); ok {
			return s
		}
	}
	return cachedSession{}
}

func (c *CacheSessionStore) store(sessionID string, s cachedSession) {
	c.cache.Set(sessionID, s, c.ttl)
}

func (c *CacheSessionStore) AppendTurns(_ context.Context, sessionID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load(sessionID)
	s.Turns = append(s.Turns, turns...)
	if c.maxMessages > 0 && len(s.Turns) > c.maxMessages {
		s.Turns = model.TrimTail(s.Turns, c.maxMessages)
	}
	c.store(sessionID, s)
	return nil
}

func (c *CacheSessionStore) History(_ context.Context, sessionID string) ([]model.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load(sessionID)
	out := make([]model.Turn, len(s.Turns))
	copy(out, s.Turns)
	return out, nil
}

func (c *CacheSessionStore) TurnCount(_ context.Context, sessionID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.load(sessionID).Turns), nil
}

func (c *CacheSessionStore) Summary(_ context.Context, sessionID string) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load(sessionID)
	return s.SummaryText, s.SummaryCovered, nil
}

func (c *CacheSessionStore) SetSummary(_ context.Context, sessionID string, text string, covered int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load(sessionID)
	s.SummaryText = text
	s.SummaryCovered = covered
	c.store(sessionID, s)
	return nil
}

func (c *CacheSessionStore) Clear(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(sessionID)
	return nil
}

var _ model.SessionStore = (*CacheSessionStore)(nil)
