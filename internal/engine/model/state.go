package model

// Mode categorises how the final answer was produced. Callers use it for
// logging and analytics.
type Mode string

const (
	ModeQuickResponse    Mode = "quick_response"
	ModeRAG              Mode = "rag"
	ModeWebFallback      Mode = "web_fallback"
	ModeOffTopicRedirect Mode = "off_topic_redirect"
	ModeError            Mode = "error"
)

// QueryInput is the graph's public input for one inbound message.
type QueryInput struct {
	SessionID   string `json:"session_id"`
	Question    string `json:"question"`
	Namespace   string `json:"namespace"`
	CompanyName string `json:"company_name"`

	// History is the session's sliding-window turn history, oldest first.
	History []Turn `json:"history,omitempty"`
	// Summary compresses turns older than the recency window; empty when
	// the conversation is still short.
	Summary string `json:"summary,omitempty"`
	// Recent holds the turns inside the recency window, always verbatim.
	Recent []Turn `json:"recent,omitempty"`
}

// EngineResult is the terminal output of the orchestration graph.
type EngineResult struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Mode      Mode     `json:"mode"`
	SessionID string   `json:"session_id"`

	QueryRewritten bool `json:"query_rewritten"`
	HasSummary     bool `json:"has_summary"`
	OffTopic       bool `json:"is_off_topic"`

	Stage            string      `json:"conversation_stage,omitempty"`
	Contact          ContactInfo `json:"collected_contact"`
	NeedsCallback    bool        `json:"needs_callback"`
	ContactConfirmed bool        `json:"contact_confirmed"`
	LeadCollected    bool        `json:"lead_collected"`

	TotalCostUSD float64 `json:"-"`
}

// ChatState is the per-invocation local state of the orchestration graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState),
//     which Eino serializes, so no extra locking is needed.
//   - Do not touch ChatState outside handlers; persistence goes through
//     the SessionStore.
type ChatState struct {
	SessionID   string
	Namespace   string
	CompanyName string

	// Question is the working query; rewritten in place by the rewrite
	// node. OriginalQuestion always keeps the inbound text.
	Question         string
	OriginalQuestion string

	History []Turn
	Summary string
	Recent  []Turn

	Context string
	Sources []Source

	SkipSearch   bool
	Rewritten    bool
	UseWebSearch bool
	OffTopic     bool
	Redirect     bool

	Stage            string
	StageHint        string
	Contact          ContactInfo
	NeedsCallback    bool
	ContactConfirmed bool
	DeclinedCallback bool

	// Accumulated LLM cost (USD) across model invocations for this query.
	TotalCostUSD float64
}
