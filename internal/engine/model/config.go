package model

import "time"

// ================ Config ================

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"1h"`
	// WindowTurns is the sliding-window size in turns (user+assistant
	// pairs); the store keeps WindowTurns*2 messages.
	WindowTurns int `envconfig:"CONVERSATION_WINDOW_TURNS" default:"10"`
	// SummarizeThreshold is the message count that triggers summarization.
	SummarizeThreshold int `envconfig:"CONVERSATION_SUMMARIZE_THRESHOLD" default:"12"`
	// RecentTurns is the recency window kept verbatim when summarizing.
	RecentTurns int `envconfig:"CONVERSATION_RECENT_TURNS" default:"3"`
	// RewriteTurns is how many recent turns the query rewriter sees.
	RewriteTurns int `envconfig:"CONVERSATION_REWRITE_TURNS" default:"3"`
}

// DefaultConversationConfig mirrors the envconfig defaults for callers that
// construct configs directly.
func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		TTL:                "1h",
		WindowTurns:        10,
		SummarizeThreshold: 12,
		RecentTurns:        3,
		RewriteTurns:       3,
	}
}

// TTLDuration parses the configured TTL, falling back to one hour when the
// value is empty or malformed.
func (c ConversationConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// JudgmentModelConfig drives the cheap, low-temperature model used for
// query rewriting, off-topic classification and summarization.
type JudgmentModelConfig struct {
	Model       string  `envconfig:"JUDGMENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"JUDGMENT_MAX_TOKENS" default:"400"`
	Temperature float32 `envconfig:"JUDGMENT_TEMPERATURE" default:"0.1"`
}

// AnswerModelConfig drives the model composing user-facing responses.
type AnswerModelConfig struct {
	Model       string  `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANSWER_MAX_TOKENS" default:"600"`
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.4"`
}

type EmbeddingConfig struct {
	Model      string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1024"`
}

type RetrieverConfig struct {
	TopK int `envconfig:"RAG_TOP_K" default:"3"`
	// Threshold is the minimum similarity score a match needs to
	// contribute to the answer context.
	Threshold float64 `envconfig:"RAG_SIMILARITY_THRESHOLD" default:"0.40"`
	// MinContextChars is the minimum-evidence bar deciding sufficiency.
	MinContextChars int `envconfig:"RAG_MIN_CONTEXT_CHARS" default:"50"`
	// ClassName is the Weaviate collection holding tenant knowledge.
	ClassName string `envconfig:"RAG_CLASS_NAME" default:"KnowledgeChunk"`
}

// DefaultRetrieverConfig mirrors the envconfig defaults for callers that
// construct configs directly.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:            3,
		Threshold:       0.40,
		MinContextChars: 50,
		ClassName:       "KnowledgeChunk",
	}
}
