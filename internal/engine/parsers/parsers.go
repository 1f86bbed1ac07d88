// Package parsers normalizes raw model output before it reaches users or
// branch decisions: whitespace cleanup for generated answers and label
// parsing for the off-topic judgment call.
package parsers

import (
	"regexp"
	"strings"
)

// basic safety limit to avoid pathological inputs
const maxContentLen = 64 * 1024 // 64KB

var (
	excessNewlines   = regexp.MustCompile(`\n{3,}`)
	excessSpaces     = regexp.MustCompile(` {2,}`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?])`)
)

// CleanResponse performs minimal cleanup on generated text: the model
// controls structure; this only removes excessive whitespace.
func CleanResponse(text string) string {
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}
	text = strings.TrimSpace(text)
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = excessSpaces.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return text
}

// CleanQuery strips quoting and surrounding whitespace from a rewritten
// query so it can be embedded directly.
func CleanQuery(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}

// ParseTopicLabel maps a judgment-call response onto a binary off-topic
// verdict. The classifier is asked to answer with ON_TOPIC or OFF_TOPIC;
// anything that does not clearly say off-topic counts as on-topic.
func ParseTopicLabel(content string) bool {
	c := strings.ToUpper(strings.TrimSpace(content))
	return strings.Contains(c, "OFF_TOPIC") || strings.Contains(c, "OFF-TOPIC")
}
