package synthesis

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/docquery/internal/retrieval"
)

// mapSystemPrompt constrains a Map call to one document's chunks. The
// model must not borrow knowledge from other documents or its training
// data, and must emit the exact fallback sentence on a miss so the
// Reducer can classify it.
func mapSystemPrompt(sourceFile string) string {
	var b strings.Builder
	b.WriteString("You answer questions using only the provided excerpts from the document ")
	fmt.Fprintf(&b, "%q. ", sourceFile)
	b.WriteString("Do not use outside knowledge and do not mention other documents. ")
	b.WriteString("If the excerpts plainly do not contain an answer, reply with exactly this sentence and nothing else: ")
	b.WriteString(NotFoundAnswer)
	return b.String()
}

// mapUserPrompt lays out one document's chunks followed by the question.
func mapUserPrompt(question string, chunks []retrieval.Chunk) string {
	var b strings.Builder
	b.WriteString("Document excerpts:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[excerpt %d]\n%s\n\n", i+1, c.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

// reduceSystemPrompt instructs the merge call. All per-document answers
// are included, "not found" ones too, so the model can disambiguate, but
// it must merge only the substantive entries and never pick a single
// document when several answered.
const reduceSystemPrompt = "You merge answers that were generated independently from different documents. " +
	"Combine only the entries that contain substantive information; ignore entries that report the document " +
	"does not contain an answer. Preserve which document each piece of information came from. " +
	"Do not add facts beyond what the entries state. If several documents contributed answers, " +
	"represent all of them; never silently keep only one."

// reduceUserPrompt lays out every per-document answer with attribution.
func reduceUserPrompt(question string, answers []PerDocumentAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nPer-document answers:\n\n", question)
	for _, a := range answers {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", a.SourceFile, a.AnswerText)
	}
	b.WriteString("Merged answer:")
	return b.String()
}
