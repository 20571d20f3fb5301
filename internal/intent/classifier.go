// Package intent classifies incoming queries as metadata or content requests.
//
// A metadata query asks about the corpus itself (document listings, counts,
// names) and is answered without retrieval or a model call. Everything else
// is a content query. Classification is deterministic pattern matching with
// a fail-safe default: a metadata request misread as content still produces
// a correct, if slower, answer, while a content request misread as metadata
// would skip retrieval entirely. The rules are therefore intentionally narrow.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the classification of a query.
type Intent string

const (
	// IntentMetadata marks queries about the document corpus itself.
	IntentMetadata Intent = "metadata"

	// IntentContent marks queries answered from document content.
	IntentContent Intent = "content"
)

// metadataPatterns are checked in order against the normalized query.
// Each recognizes a request for document listings, counts, or names.
var metadataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\blist\s+(?:all\s+)?(?:the\s+)?(?:documents|docs|files)\b`),
	regexp.MustCompile(`\bhow\s+many\s+(?:documents|docs|files)\b`),
	regexp.MustCompile(`\b(?:which|what)\s+(?:documents|docs|files)\s+(?:do|are|have|did)\b`),
	regexp.MustCompile(`\bshow\s+(?:me\s+)?(?:all\s+)?(?:the\s+)?(?:documents|docs|files)\b`),
	regexp.MustCompile(`\b(?:document|doc|file)\s+names\b`),
	regexp.MustCompile(`\bnames\s+of\s+(?:all\s+)?(?:the\s+)?(?:documents|docs|files)\b`),
	regexp.MustCompile(`\bwhat\s+(?:documents|docs|files)\s+(?:exist|are\s+there|are\s+available|are\s+uploaded)\b`),
}

// Classify labels a query as metadata or content.
//
// Pure function: deterministic given identical input, no side effects.
// Empty input and any non-match default to IntentContent.
func Classify(query string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return IntentContent
	}

	for _, pattern := range metadataPatterns {
		if pattern.MatchString(normalized) {
			return IntentMetadata
		}
	}

	return IntentContent
}
