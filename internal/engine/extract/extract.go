// Package extract pulls structured contact fields out of free text using
// pattern rules and dialogue-position heuristics. All functions are pure
// over (text, history); a failed extraction simply yields an empty field.
package extract

import (
	"regexp"
	"strings"

	"github.com/bayai-chat/server/internal/engine/model"
)

var (
	phonePatterns = []*regexp.Regexp{
		// (123) 456-7890, 123-456-7890, +1 123 456 7890
		regexp.MustCompile(`\+?1?\s*\(?(\d{3})\)?[\s.-]?(\d{3})[\s.-]?(\d{4})`),
		// 123.456.7890
		regexp.MustCompile(`\b(\d{3})[\s.-](\d{3})[\s.-](\d{4})\b`),
		// bare 10 digits
		regexp.MustCompile(`\b(\d{10})\b`),
	}

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	introNamePattern = regexp.MustCompile(`(?:(?i:my name is|i am|i'm|this is|it's|call me))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	bareNamePattern  = regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})$`)
	nameFillerLead   = regexp.MustCompile(`^(?i:my name is|i am|i'm|this is|it's|its)\s+`)
	nameFillerTail   = regexp.MustCompile(`\s+(?i:here|sir|ma'am)$`)
	nameWordPattern  = regexp.MustCompile(`^[A-Za-z'-]+$`)

	askingNamePhrases = []string{
		"what's your name",
		"what is your name",
		"your name",
		"may i have your name",
	}
)

// Phone extracts the first phone-like substring and normalizes it to the
// canonical (XXX) XXX-XXXX display format.
func Phone(text string) string {
	// strip lead-in phrases that would otherwise confuse the patterns
	cleaned := strings.ReplaceAll(text, "call me at", "")
	cleaned = strings.ReplaceAll(cleaned, "my number is", "")

	for _, p := range phonePatterns {
		m := p.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		switch len(m) {
		case 4:
			return "(" + m[1] + ") " + m[2] + "-" + m[3]
		case 2:
			if len(m[1]) == 10 {
				d := m[1]
				return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
			}
		}
	}
	return ""
}

// Email extracts the first email address found in text.
func Email(text string) string {
	return emailPattern.FindString(text)
}

// Name extracts a person's name. If the assistant's immediately preceding
// turn asked for the name, the whole reply (minus filler) is treated as
// the name; otherwise explicit self-introduction patterns are matched.
func Name(text string, history []model.Turn) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if assistantAskedForName(history) {
		if name := wholeReplyName(text); name != "" {
			return name
		}
	}

	if m := introNamePattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); len(name) >= 2 && len(name) <= 50 {
			return name
		}
	}
	if m := bareNamePattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); len(name) >= 2 && len(name) <= 50 {
			return name
		}
	}
	return ""
}

// ContactInfo extracts all contact fields from text, each independently.
func ContactInfo(text string, history []model.Turn) model.ContactInfo {
	return model.ContactInfo{
		Name:  Name(text, history),
		Phone: Phone(text),
		Email: Email(text),
	}
}

// MissingFields returns which of the required fields are still empty, in
// the given order. Default required set is {name, phone}.
func MissingFields(info model.ContactInfo, required ...string) []string {
	if len(required) == 0 {
		required = []string{"name", "phone"}
	}
	var missing []string
	for _, f := range required {
		if info.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func assistantAskedForName(history []model.Turn) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	if last.Role != model.RoleAssistant {
		return false
	}
	content := strings.ToLower(last.Content)
	for _, phrase := range askingNamePhrases {
		if strings.Contains(content, phrase) {
			return true
		}
	}
	return false
}

// wholeReplyName treats the whole user reply as a name answer: strips
// filler, title-cases, then validates 1-4 alphabetic tokens. Returns ""
// rather than guessing on punctuation-heavy input.
func wholeReplyName(text string) string {
	name := nameFillerLead.ReplaceAllString(strings.ToLower(text), "")
	name = nameFillerTail.ReplaceAllString(name, "")

	words := strings.Fields(name)
	if len(words) < 1 || len(words) > 4 {
		return ""
	}
	for i, w := range words {
		if !nameWordPattern.MatchString(w) {
			return ""
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
