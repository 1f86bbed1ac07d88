package convstate

import (
	"testing"

	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstMessageIsGreeting(t *testing.T) {
	s := Analyze(nil, "Hi")
	assert.Equal(t, StageGreeting, s.Stage)
	assert.False(t, s.NeedsCallback)
}

func TestProblemKeywordAdvancesStage(t *testing.T) {
	history := []model.Turn{
		model.UserTurn("Hi"),
		model.AssistantTurn("Hello! What brings you here today?"),
	}

	s := New()
	s.Update("Hi", nil)
	s.Update("I was in a car accident", history)
	assert.Equal(t, StageDiscovery, s.Stage)

	s.Update("the accident happened at work", history)
	assert.Equal(t, StageGatheringInfo, s.Stage)
}

func TestCallbackRequestWithFullContact(t *testing.T) {
	s := Analyze(nil, "Can you call me? I'm Sarah at 555-987-6543")

	assert.True(t, s.NeedsCallback)
	assert.Equal(t, "Sarah", s.Contact.Name)
	assert.Equal(t, "(555) 987-6543", s.Contact.Phone)
	assert.Equal(t, StageConfirmingContact, s.Stage)
	assert.Empty(t, s.MissingContactFields())
}

func TestCallbackCollectionProgression(t *testing.T) {
	history := []model.Turn{
		model.UserTurn("I was in a crash"),
		model.AssistantTurn("I'm sorry to hear that. What happened?"),
	}

	s := New()
	s.Update("Can you have someone call me?", history)
	assert.True(t, s.NeedsCallback)
	assert.Equal(t, StageCollectingContact, s.Stage)
	assert.Equal(t, []string{"name", "phone"}, s.MissingContactFields())
	assert.Equal(t, "Ask for their name", s.NextQuestionSuggestion())

	s.Update("My name is John Smith", history)
	assert.Equal(t, "John Smith", s.Contact.Name)
	assert.Equal(t, StageCollectingContact, s.Stage)
	assert.Equal(t, "Ask for their phone number", s.NextQuestionSuggestion())

	s.Update("555-123-4567", history)
	assert.Equal(t, "(555) 123-4567", s.Contact.Phone)
	assert.Equal(t, StageConfirmingContact, s.Stage)
	assert.Equal(t, "Confirm: John Smith at (555) 123-4567", s.NextQuestionSuggestion())
	assert.True(t, s.IsCollectingContact())

	s.CallbackConfirmed = true
	s.Update("yes that's right", history)
	assert.Equal(t, StageClosing, s.Stage)
}

func TestNeedsCallbackIsMonotonic(t *testing.T) {
	s := New()
	s.Update("please schedule a consultation", nil)
	require.True(t, s.NeedsCallback)

	s.Update("actually tell me about pricing first", nil)
	assert.True(t, s.NeedsCallback, "needs_callback never resets within a session")
}

func TestContactNameNeverNulledOut(t *testing.T) {
	s := New()
	s.Update("I'm Sarah", nil)
	require.Equal(t, "Sarah", s.Contact.Name)

	s.Update("what are your office hours?", nil)
	assert.Equal(t, "Sarah", s.Contact.Name)

	s.Update("my email is sarah@example.com", nil)
	assert.Equal(t, "Sarah", s.Contact.Name)
	assert.Equal(t, "sarah@example.com", s.Contact.Email)
}

func TestOfferingHelpAfterLongHistory(t *testing.T) {
	history := []model.Turn{
		model.UserTurn("Hi"),
		model.AssistantTurn("Hello!"),
		model.UserTurn("Tell me about your services"),
		model.AssistantTurn("We offer consultations."),
	}

	s := Analyze(history, "what else do you do")
	assert.Equal(t, StageOfferingHelp, s.Stage)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	history := []model.Turn{
		model.UserTurn("I got hurt at work"),
		model.AssistantTurn("I'm sorry. Can I get some details?"),
		model.UserTurn("Call me at 555-111-2222, I'm Dan"),
		model.AssistantTurn("Thanks Dan, we'll be in touch."),
	}

	a := Analyze(history, "when will someone call?")
	b := Analyze(history, "when will someone call?")
	assert.Equal(t, a, b, "state is a deterministic fold over history")
}

func TestDeclinedCallback(t *testing.T) {
	history := []model.Turn{
		model.UserTurn("no thanks, I'm not interested in a call"),
		model.AssistantTurn("No problem at all."),
	}
	assert.True(t, DeclinedCallback(history))
	assert.False(t, DeclinedCallback([]model.Turn{model.UserTurn("sounds good")}))
}

func TestStageHints(t *testing.T) {
	s := New()
	assert.Contains(t, s.StageHint(), "welcoming")

	s.NeedsCallback = true
	s.updateStage("", 2)
	assert.Contains(t, s.StageHint(), "Missing: name, phone")
}
