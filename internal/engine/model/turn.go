package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's ordered history. Turns are
// immutable once written; ordering is append-only and defines
// conversational causality.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
}

// Message converts a Turn into an Eino schema message for model calls.
func (t Turn) Message() *schema.Message {
	if t.Role == RoleAssistant {
		return schema.AssistantMessage(t.Content, nil)
	}
	return schema.UserMessage(t.Content)
}

// ToMessages converts an ordered turn list into schema messages.
func ToMessages(turns []Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, t.Message())
	}
	return msgs
}

// LastAssistantContent returns the content of the most recent assistant
// turn, or "" when there is none. The entity extractor uses this to tell
// whether the assistant just asked the visitor for their name.
func LastAssistantContent(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}

// TrimTail returns at most max of the most recent turns as a copy.
func TrimTail(turns []Turn, max int) []Turn {
	if max <= 0 || len(turns) <= max {
		out := make([]Turn, len(turns))
		copy(out, turns)
		return out
	}
	source := turns[len(turns)-max:]
	out := make([]Turn, len(source))
	copy(out, source)
	return out
}
