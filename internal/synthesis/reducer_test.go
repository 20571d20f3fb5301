package synthesis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docquery/internal/logging"
)

// fakeCompleter counts calls and returns a canned completion or error.
type fakeCompleter struct {
	calls    atomic.Int64
	response string
	err      error

	// completeFn, when set, overrides the canned response.
	completeFn func(system, user string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	if f.completeFn != nil {
		return f.completeFn(system, user)
	}
	return f.response, f.err
}

func answer(docID, text string) PerDocumentAnswer {
	return PerDocumentAnswer{
		DocID:      docID,
		SourceFile: docID + ".pdf",
		AnswerText: text,
		ChunkCount: 3,
	}
}

func TestReduceShortcuts(t *testing.T) {
	tests := []struct {
		name      string
		answers   []PerDocumentAnswer
		want      string
		wantCalls int64
	}{
		{
			name:      "no answers yields canonical fallback",
			answers:   nil,
			want:      NotFoundAnswer,
			wantCalls: 0,
		},
		{
			name:      "single entry returned verbatim",
			answers:   []PerDocumentAnswer{answer("doc-a", "Alice is a Go engineer.")},
			want:      "Alice is a Go engineer.",
			wantCalls: 0,
		},
		{
			name: "single not-found entry returned verbatim",
			answers: []PerDocumentAnswer{
				answer("doc-a", NotFoundAnswer),
			},
			want:      NotFoundAnswer,
			wantCalls: 0,
		},
		{
			name: "all not found yields canonical fallback",
			answers: []PerDocumentAnswer{
				answer("doc-a", NotFoundAnswer),
				answer("doc-b", "The document does not contain this information."),
			},
			want:      NotFoundAnswer,
			wantCalls: 0,
		},
		{
			name: "one substantive among several returned verbatim",
			answers: []PerDocumentAnswer{
				answer("doc-a", NotFoundAnswer),
				answer("doc-b", "Bob studied physics at MIT."),
				answer("doc-c", NotFoundAnswer),
			},
			want:      "Bob studied physics at MIT.",
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{response: "merged"}
			reducer := NewReducer(completer, nil, logging.NewTestLogger().Logger)

			got, err := reducer.Reduce(context.Background(), "who is this?", tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, completer.calls.Load(), "model call count")
		})
	}
}

func TestReduceMergesMultipleSubstantiveAnswers(t *testing.T) {
	completer := &fakeCompleter{
		completeFn: func(_, user string) (string, error) {
			// Every per-document answer reaches the merge prompt,
			// not-found ones included.
			assert.Contains(t, user, "Alice is an engineer.")
			assert.Contains(t, user, "Bob is a designer.")
			assert.Contains(t, user, NotFoundAnswer)
			return "Alice is an engineer and Bob is a designer.", nil
		},
	}
	reducer := NewReducer(completer, nil, logging.NewTestLogger().Logger)

	got, err := reducer.Reduce(context.Background(), "who are these people?", []PerDocumentAnswer{
		answer("doc-a", "Alice is an engineer."),
		answer("doc-b", "Bob is a designer."),
		answer("doc-c", NotFoundAnswer),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice is an engineer and Bob is a designer.", got)
	assert.Equal(t, int64(1), completer.calls.Load())
}

func TestReduceMergeFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	reducer := NewReducer(completer, nil, logging.NewTestLogger().Logger)

	_, err := reducer.Reduce(context.Background(), "q", []PerDocumentAnswer{
		answer("doc-a", "Answer A."),
		answer("doc-b", "Answer B."),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
}
