package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/docquery/internal/retrieval"
)

// candidateNamePattern matches an all-caps multi-token sequence, the
// shape a personal name takes in a résumé header. Two to four tokens,
// each at least two letters.
var candidateNamePattern = regexp.MustCompile(`\b[A-Z]{2,}(?:\s+[A-Z]{2,}){1,3}\b`)

// nameDenylist holds all-caps tokens that look like name parts but are
// not: technology acronyms and common résumé section headers.
var nameDenylist = map[string]bool{
	"API": true, "AWS": true, "CSS": true, "CLI": true, "GCP": true,
	"HTML": true, "HTTP": true, "HTTPS": true, "JSON": true, "JWT": true,
	"PDF": true, "REST": true, "SDK": true, "SQL": true, "TXT": true,
	"URL": true, "UUID": true, "XML": true, "CRUD": true, "NOSQL": true,
	"EDUCATION": true, "EXPERIENCE": true, "SKILLS": true, "SUMMARY": true,
	"PROFILE": true, "OBJECTIVE": true, "CONTACT": true, "PROJECTS": true,
	"CERTIFICATIONS": true, "LANGUAGES": true, "REFERENCES": true,
}

// extractCandidateName scans the first two chunks for an all-caps
// multi-token sequence that could be a personal name. This is a narrow,
// last-resort heuristic for résumé-like documents: it only runs after
// the model has already declared failure, and a candidate containing
// any denylisted token is rejected outright.
func extractCandidateName(chunks []retrieval.Chunk) string {
	limit := 2
	if len(chunks) < limit {
		limit = len(chunks)
	}

	for _, chunk := range chunks[:limit] {
		for _, match := range candidateNamePattern.FindAllString(chunk.Text, -1) {
			if validCandidateName(match) {
				return strings.Join(strings.Fields(match), " ")
			}
		}
	}
	return ""
}

func validCandidateName(candidate string) bool {
	for _, token := range strings.Fields(candidate) {
		if nameDenylist[token] {
			return false
		}
	}
	return true
}

// candidateNameAnswer builds the override sentence for a recovered name.
func candidateNameAnswer(name string) string {
	return fmt.Sprintf("The document appears to be about %s.", name)
}
