package chat

import (
	"regexp"
	"strings"

	"assistant_server/core/domain"
)

// intentKeywords is the deterministic fallback layer: a whole-word match in
// the user's own message is treated as evidence of intent equal to the
// classifier's output.
var intentKeywords = map[domain.Intent][]string{
	domain.IntentRead:   {"read", "show", "fetch"},
	domain.IntentReply:  {"reply", "respond"},
	domain.IntentDelete: {"delete", "remove"},
	domain.IntentDigest: {"digest", "summary"},
}

var wordPatterns = buildWordPatterns()

func buildWordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, words := range intentKeywords {
		for _, w := range words {
			patterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
	return patterns
}

// hasKeyword reports whether message contains any of the words as a whole
// word. Word-boundary matching keeps keywords embedded in quoted email text
// from triggering a branch.
func hasKeyword(message string, words []string) bool {
	for _, w := range words {
		if wordPatterns[w].MatchString(message) {
			return true
		}
	}
	return false
}

// matchesIntent reports whether the message keyword-routes to the intent.
func matchesIntent(message string, intent domain.Intent) bool {
	return hasKeyword(message, intentKeywords[intent])
}

// readCount picks how many emails the read branch fetches: 5 by default, 20
// when the message asks for a large batch.
func readCount(message string) int {
	if strings.Contains(message, "many") || strings.Contains(message, "all") || strings.Contains(message, "20") {
		return 20
	}
	return 5
}

// normalizeMessage lower-cases and trims the raw chat text once; both keyword
// matching and count heuristics run over the normalized form.
func normalizeMessage(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
