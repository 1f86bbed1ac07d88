package model

import "context"

// SessionStore is the injected session-memory abstraction. Implementations
// must serialize AppendTurns per session ID so concurrent requests for the
// same session cannot interleave writes and corrupt turn order.
type SessionStore interface {
	// AppendTurns appends one completed exchange to the session history.
	AppendTurns(ctx context.Context, sessionID string, turns ...Turn) error

	// History returns the session's turn history, oldest first, limited to
	// the store's sliding window.
	History(ctx context.Context, sessionID string) ([]Turn, error)

	// TurnCount returns the number of stored messages for the session.
	TurnCount(ctx context.Context, sessionID string) (int, error)

	// Summary returns the rolling summary and the number of messages
	// already folded into it (zero values when none exists).
	Summary(ctx context.Context, sessionID string) (text string, covered int, err error)

	// SetSummary stores the rolling summary together with how many
	// messages it covers.
	SetSummary(ctx context.Context, sessionID string, text string, covered int) error

	// Clear removes all state for the session.
	Clear(ctx context.Context, sessionID string) error
}
