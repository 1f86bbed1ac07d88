// Package quick holds the deterministic pre-filters for common
// conversational inputs. Only pure farewells short-circuit the pipeline;
// greetings, thanks and confirmations flow through full processing so the
// response can lean on knowledge-base context.
package quick

import (
	"regexp"
	"strings"
)

var (
	greetingPattern     = regexp.MustCompile(`(?i)\b(hi|hello|hey|hiya|greetings|howdy)\b`)
	farewellPattern     = regexp.MustCompile(`(?i)\b(bye|goodbye|see you|talk later|cheers|take care)\b`)
	thankYouPattern     = regexp.MustCompile(`(?i)\b(thanks|thank you|thx|ty)\b`)
	confirmationPattern = regexp.MustCompile(`(?i)^(yes|yeah|yep|yup|ok|okay|sure|alright|fine|good|cool|no|nope|nah|not really)\.?$`)
)

const farewellResponse = "Feel free to reach out anytime. Have a great day!"

// IsGreeting reports whether the message is a short greeting.
func IsGreeting(text string) bool {
	t := strings.TrimSpace(text)
	return greetingPattern.MatchString(t) && len(strings.Fields(t)) <= 3
}

// IsFarewell reports whether the message is a short farewell.
func IsFarewell(text string) bool {
	t := strings.TrimSpace(text)
	return farewellPattern.MatchString(t) && len(strings.Fields(t)) <= 5
}

// IsThankYou reports whether the message is a short thank-you.
func IsThankYou(text string) bool {
	t := strings.TrimSpace(text)
	return thankYouPattern.MatchString(t) && len(strings.Fields(t)) <= 5
}

// IsShortConfirmation reports whether the message is a bare yes/no/okay.
func IsShortConfirmation(text string) bool {
	return confirmationPattern.MatchString(strings.TrimSpace(strings.ToLower(text)))
}

// Response returns the canned reply for messages that skip the full
// pipeline, or "" when the message needs knowledge-base processing.
func Response(text string) string {
	if IsFarewell(text) {
		return farewellResponse
	}
	return ""
}
