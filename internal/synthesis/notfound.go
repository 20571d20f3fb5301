// Package synthesis implements the Map-Reduce answer protocol: grounded
// per-document answer generation (Map) and merging of per-document
// answers into one response (Reduce).
package synthesis

import "strings"

// NotFoundAnswer is the canonical fallback sentence. The Map prompt
// instructs the model to emit exactly this sentence when a document does
// not contain an answer, and the Reducer and orchestrator match against
// it to detect failed lookups.
const NotFoundAnswer = "The provided documents do not contain information to answer this question."

// DefaultNotFoundPhrases are the substrings (matched case-insensitively)
// that mark an answer as "not found". Free-text sniffing is fragile, so
// the set is an explicit configurable allow-list rather than scattered
// literals.
var DefaultNotFoundPhrases = []string{
	"do not contain",
	"does not contain",
	"no information",
	"not mentioned",
	"cannot find",
	"could not find",
	"no relevant information",
	"unable to find",
}

// NotFoundClassifier detects answers that report failure to find
// information.
type NotFoundClassifier struct {
	phrases []string
}

// NewNotFoundClassifier builds a classifier over the given phrase set.
// An empty set falls back to DefaultNotFoundPhrases.
func NewNotFoundClassifier(phrases []string) *NotFoundClassifier {
	if len(phrases) == 0 {
		phrases = DefaultNotFoundPhrases
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &NotFoundClassifier{phrases: lowered}
}

// Match reports whether the answer indicates "not found". Empty answers
// count as not found.
func (c *NotFoundClassifier) Match(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return true
	}
	lowered := strings.ToLower(trimmed)
	for _, phrase := range c.phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
