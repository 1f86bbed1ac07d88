// Package convstate tracks the dialogue stage and collected contact fields
// for one session. State is a deterministic fold over the turn history:
// replaying the same history through Analyze always yields the same state.
package convstate

import (
	"strings"

	"github.com/bayai-chat/server/internal/engine/extract"
	"github.com/bayai-chat/server/internal/engine/model"
)

// Stage is the current phase of conversational intent progression.
type Stage string

const (
	StageGreeting          Stage = "greeting"
	StageDiscovery         Stage = "discovery"
	StageGatheringInfo     Stage = "gathering_info"
	StageCollectingContact Stage = "collecting_contact"
	StageConfirmingContact Stage = "confirming_contact"
	StageOfferingHelp      Stage = "offering_help"
	StageClosing           Stage = "closing"
)

var callbackKeywords = []string{
	"call me", "contact me", "reach out", "get back to me",
	"schedule", "appointment", "consultation", "speak with",
	"talk to someone", "attorney call", "lawyer call",
}

var problemKeywords = []string{
	"accident", "injury", "hurt", "crash", "fall", "slip",
	"workers comp", "workplace", "medical", "malpractice",
	"help", "problem", "issue", "happened",
}

var declinePatterns = []string{
	"no thanks", "not interested", "don't call", "dont call",
	"i'm not interested", "im not interested", "no thank you",
	"not now", "maybe later", "no need",
}

// State is the per-session mutable conversation record.
type State struct {
	Stage   Stage
	Contact model.ContactInfo
	// CaseInfo is an open bag of extracted case details.
	CaseInfo map[string]string
	// NeedsCallback is monotonic: once set it stays set for the session.
	NeedsCallback     bool
	CallbackConfirmed bool
}

func New() *State {
	return &State{
		Stage:    StageGreeting,
		CaseInfo: map[string]string{},
	}
}

// Update folds one user message into the state. Contact fields are only
// filled when previously empty; a message lacking a field never clears it.
func (s *State) Update(userMessage string, history []model.Turn) {
	s.Contact.Merge(extract.ContactInfo(userMessage, history))

	lower := strings.ToLower(userMessage)
	for _, kw := range callbackKeywords {
		if strings.Contains(lower, kw) {
			s.NeedsCallback = true
			break
		}
	}

	s.updateStage(lower, len(history))
}

// updateStage re-evaluates the stage; transition rules run in priority
// order and are not strictly linear.
func (s *State) updateStage(messageLower string, historyLen int) {
	if s.NeedsCallback {
		if len(extract.MissingFields(s.Contact)) == 0 {
			if s.CallbackConfirmed {
				s.Stage = StageClosing
			} else {
				s.Stage = StageConfirmingContact
			}
		} else {
			s.Stage = StageCollectingContact
		}
		return
	}

	if historyLen == 0 {
		s.Stage = StageGreeting
		return
	}

	for _, kw := range problemKeywords {
		if strings.Contains(messageLower, kw) {
			switch s.Stage {
			case StageGreeting:
				s.Stage = StageDiscovery
			case StageDiscovery:
				s.Stage = StageGatheringInfo
			}
			return
		}
	}

	if historyLen >= 4 {
		s.Stage = StageOfferingHelp
	}
}

// StageHint returns a short instruction the answer generator uses to bias
// tone for the current stage.
func (s *State) StageHint() string {
	switch s.Stage {
	case StageGreeting:
		return "User just started conversation. Be welcoming and ask what brings them here."
	case StageDiscovery:
		return "User mentioned a problem. Show empathy and ask what happened."
	case StageGatheringInfo:
		return "Gathering case details. Ask about specifics, timeline, documentation."
	case StageCollectingContact:
		missing := extract.MissingFields(s.Contact)
		return "Collecting contact info for callback. Missing: " + strings.Join(missing, ", ")
	case StageConfirmingContact:
		return "Confirm collected contact info with user before proceeding."
	case StageOfferingHelp:
		return "User shared details. Offer next steps (consultation, callback, etc.)"
	case StageClosing:
		return "Conversation wrapping up. Confirm next steps and thank them."
	}
	return ""
}

// MissingContactFields lists still-empty required fields, in order.
func (s *State) MissingContactFields() []string {
	return extract.MissingFields(s.Contact)
}

// NextQuestionSuggestion says which field to ask for next, or "" when
// nothing is pending.
func (s *State) NextQuestionSuggestion() string {
	switch s.Stage {
	case StageCollectingContact:
		missing := extract.MissingFields(s.Contact)
		if len(missing) > 0 {
			switch missing[0] {
			case "name":
				return "Ask for their name"
			case "phone":
				return "Ask for their phone number"
			}
		}
	case StageConfirmingContact:
		return "Confirm: " + s.Contact.Name + " at " + s.Contact.Phone
	}
	return ""
}

// IsCollectingContact reports whether the session is in a contact
// collection phase.
func (s *State) IsCollectingContact() bool {
	return s.Stage == StageCollectingContact || s.Stage == StageConfirmingContact
}

// Analyze reconstructs conversation state by folding the full history and
// the latest message through the same extraction/transition rules. This is
// the ground-truth definition used to verify incremental snapshots.
func Analyze(history []model.Turn, latestMessage string) *State {
	s := New()
	for _, t := range history {
		if t.Role == model.RoleUser {
			s.Update(t.Content, history)
		}
	}
	s.Update(latestMessage, history)
	return s
}

// DeclinedCallback reports whether the user recently declined a callback,
// scanning up to the last 6 messages. The answer generator uses it to stop
// asking for contact info.
func DeclinedCallback(history []model.Turn) bool {
	recent := model.TrimTail(history, 6)
	for _, t := range recent {
		if t.Role != model.RoleUser {
			continue
		}
		lower := strings.ToLower(t.Content)
		for _, p := range declinePatterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}
