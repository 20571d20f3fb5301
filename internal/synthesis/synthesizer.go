package synthesis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/docquery/internal/llm"
	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
	"go.uber.org/zap"
)

// ErrSynthesisFailed indicates a language-model call errored or timed
// out during Map or Reduce. Surfaced unretried; the orchestrator fails
// the whole request rather than proceeding with partial documents.
var ErrSynthesisFailed = errors.New("answer synthesis failed")

// PerDocumentAnswer is one Map task's output. Never mutated after
// creation.
type PerDocumentAnswer struct {
	DocID      string
	SourceFile string
	AnswerText string
	ChunkCount int
}

// Synthesizer runs the Map phase: one grounded completion call per
// distinct document, each a pure function of (question, that document's
// chunks).
type Synthesizer struct {
	completer llm.Completer
	logger    *logging.Logger
}

// NewSynthesizer creates a synthesizer over the given completion client.
func NewSynthesizer(completer llm.Completer, logger *logging.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		completer: completer,
		logger:    logger.Named("map"),
	}
}

// MapAnswer generates an answer for one document, grounded strictly in
// that document's chunks. A model error is a hard failure for this
// document's task and is not retried here.
func (s *Synthesizer) MapAnswer(ctx context.Context, question string, doc retrieval.DocumentChunks) (PerDocumentAnswer, error) {
	answer, err := s.completer.Complete(ctx,
		mapSystemPrompt(doc.SourceFile),
		mapUserPrompt(question, doc.Chunks),
	)
	if err != nil {
		return PerDocumentAnswer{}, fmt.Errorf("%w: document %s: %v", ErrSynthesisFailed, doc.DocID, err)
	}

	return PerDocumentAnswer{
		DocID:      doc.DocID,
		SourceFile: doc.SourceFile,
		AnswerText: answer,
		ChunkCount: len(doc.Chunks),
	}, nil
}

// MapAll runs one Map task per document concurrently and waits for all
// of them (a join, not a race). Tasks share no mutable state and the
// returned answers are ordered by doc_id, so the output is identical
// regardless of completion order. If any task fails, the whole batch
// fails after the join; partial results are never returned.
func (s *Synthesizer) MapAll(ctx context.Context, question string, docs []retrieval.DocumentChunks) ([]PerDocumentAnswer, error) {
	answers := make([]PerDocumentAnswer, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc retrieval.DocumentChunks) {
			defer wg.Done()
			answers[i], errs[i] = s.MapAnswer(ctx, question, doc)
		}(i, doc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(answers, func(i, j int) bool { return answers[i].DocID < answers[j].DocID })

	s.logger.Debug(ctx, "map phase complete",
		zap.Int("documents", len(docs)),
	)
	return answers, nil
}

// Answer runs a single map-style call over an already-filtered chunk
// set. Used for content queries that do not need Map-Reduce: the one
// invocation is the whole answer.
func (s *Synthesizer) Answer(ctx context.Context, question string, sourceFile string, chunks []retrieval.Chunk) (string, error) {
	answer, err := s.completer.Complete(ctx,
		mapSystemPrompt(sourceFile),
		mapUserPrompt(question, chunks),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	return answer, nil
}
