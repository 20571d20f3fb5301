package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/docquery/internal/retrieval"
)

func textChunks(texts ...string) []retrieval.Chunk {
	chunks := make([]retrieval.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = retrieval.Chunk{
			PointID:  "p" + string(rune('0'+i)),
			DocID:    "doc-a",
			Position: i,
			Text:     text,
		}
	}
	return chunks
}

func TestExtractCandidateName(t *testing.T) {
	tests := []struct {
		name   string
		chunks []retrieval.Chunk
		want   string
	}{
		{
			name:   "resume header",
			chunks: textChunks("JANE DOE\nSenior Software Engineer\njane@example.com"),
			want:   "JANE DOE",
		},
		{
			name:   "three token name",
			chunks: textChunks("MARIA DEL CARMEN\nProduct Manager"),
			want:   "MARIA DEL CARMEN",
		},
		{
			name:   "section header rejected",
			chunks: textChunks("WORK EXPERIENCE\nAcme Corp, 2019-2024"),
			want:   "",
		},
		{
			name:   "tech acronyms rejected",
			chunks: textChunks("Built REST API services with JSON payloads"),
			want:   "",
		},
		{
			name:   "only first two chunks scanned",
			chunks: textChunks("intro text", "more text", "JANE DOE"),
			want:   "",
		},
		{
			name:   "single token is not a name",
			chunks: textChunks("RESUME\nJane Doe"),
			want:   "",
		},
		{
			name:   "no chunks",
			chunks: nil,
			want:   "",
		},
		{
			name:   "whitespace collapsed",
			chunks: textChunks("JOHN   SMITH\nEngineer"),
			want:   "JOHN SMITH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCandidateName(tt.chunks))
		})
	}
}

func TestCandidateNameAnswer(t *testing.T) {
	assert.Equal(t, "The document appears to be about JANE DOE.", candidateNameAnswer("JANE DOE"))
}
