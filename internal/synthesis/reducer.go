package synthesis

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/docquery/internal/llm"
	"github.com/fyrsmithlabs/docquery/internal/logging"
	"go.uber.org/zap"
)

// Reducer merges per-document answers into one response. Documents that
// reported "not found" are skipped in the merge but never silently
// dropped from consideration: every answer reaches the Reducer.
//
// Only the selection logic here is deterministic; when two or more
// documents contributed real content, final prose comes from the model.
type Reducer struct {
	completer  llm.Completer
	classifier *NotFoundClassifier
	logger     *logging.Logger
}

// NewReducer creates a reducer over the given completion client.
func NewReducer(completer llm.Completer, classifier *NotFoundClassifier, logger *logging.Logger) *Reducer {
	if classifier == nil {
		classifier = NewNotFoundClassifier(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reducer{
		completer:  completer,
		classifier: classifier,
		logger:     logger.Named("reduce"),
	}
}

// Classifier returns the reducer's not-found classifier, shared with the
// orchestrator's post-processing.
func (r *Reducer) Classifier() *NotFoundClassifier {
	return r.classifier
}

// Reduce merges the per-document answers into one answer text.
//
// Deterministic shortcuts, in order:
//   - exactly one entry: returned verbatim, no model call;
//   - every entry "not found": canonical fallback, no model call;
//   - exactly one substantive entry among several: returned verbatim,
//     no model call;
//   - otherwise one merge call over all entries, "not found" ones
//     included for the model's own disambiguation.
func (r *Reducer) Reduce(ctx context.Context, question string, answers []PerDocumentAnswer) (string, error) {
	if len(answers) == 0 {
		return NotFoundAnswer, nil
	}
	if len(answers) == 1 {
		return answers[0].AnswerText, nil
	}

	var substantive []PerDocumentAnswer
	for _, a := range answers {
		if !r.classifier.Match(a.AnswerText) {
			substantive = append(substantive, a)
		}
	}

	switch len(substantive) {
	case 0:
		r.logger.Debug(ctx, "all documents reported not found",
			zap.Int("documents", len(answers)),
		)
		return NotFoundAnswer, nil
	case 1:
		r.logger.Debug(ctx, "single substantive answer, skipping merge",
			zap.String("doc_id", substantive[0].DocID),
		)
		return substantive[0].AnswerText, nil
	}

	merged, err := r.completer.Complete(ctx, reduceSystemPrompt, reduceUserPrompt(question, answers))
	if err != nil {
		return "", fmt.Errorf("%w: merge: %v", ErrSynthesisFailed, err)
	}

	r.logger.Debug(ctx, "merged per-document answers",
		zap.Int("documents", len(answers)),
		zap.Int("substantive", len(substantive)),
	)
	return merged, nil
}
