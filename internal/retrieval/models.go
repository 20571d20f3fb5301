// Package retrieval implements chunk retrieval against the vector store:
// single-document and balanced multi-document search, lead-chunk inclusion,
// score thresholding, deduplication, and deterministic ordering.
package retrieval

import (
	"errors"

	"github.com/fyrsmithlabs/docquery/internal/qdrant"
)

// Payload keys written by the ingestion pipeline.
const (
	PayloadText       = "text"
	PayloadDocID      = "doc_id"
	PayloadSourceFile = "source_file"
	PayloadChunkIndex = "chunk_index"
)

// ErrUnavailable indicates the vector store is unreachable or the
// collection is missing. Surfaced to the caller unretried; transient
// transport errors are already retried inside the qdrant client.
var ErrUnavailable = errors.New("vector store unavailable")

// Chunk is the atomic unit of retrieval: a contiguous span of document
// text with positional metadata. Position 0 is the document's lead chunk.
type Chunk struct {
	PointID    string
	Text       string
	DocID      string
	SourceFile string
	Position   int
	Score      float32
}

// DocumentInfo identifies one distinct document in the corpus.
type DocumentInfo struct {
	DocID      string `json:"doc_id"`
	SourceFile string `json:"source_file"`
}

// Result is the output of a retrieval pass, ordered by score descending.
// The Ranker reorders it into contiguous per-document groups.
type Result struct {
	Chunks []Chunk
}

// Empty reports whether no chunk survived retrieval and thresholding.
func (r *Result) Empty() bool {
	return r == nil || len(r.Chunks) == 0
}

// DocumentIDs returns the distinct document IDs present, in first-seen order.
func (r *Result) DocumentIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.Chunks {
		if !seen[c.DocID] {
			seen[c.DocID] = true
			ids = append(ids, c.DocID)
		}
	}
	return ids
}

// DocumentChunks groups one document's chunks for the Map phase.
type DocumentChunks struct {
	DocID      string
	SourceFile string
	Chunks     []Chunk
}

// chunkFromPayload builds a Chunk from a point's payload. Unknown or
// malformed payload fields degrade to zero values rather than failing
// the whole result.
func chunkFromPayload(id string, score float32, payload map[string]interface{}) Chunk {
	return Chunk{
		PointID:    id,
		Text:       payloadString(payload, PayloadText),
		DocID:      payloadString(payload, PayloadDocID),
		SourceFile: payloadString(payload, PayloadSourceFile),
		Position:   payloadInt(payload, PayloadChunkIndex),
		Score:      score,
	}
}

func chunkFromScoredPoint(p *qdrant.ScoredPoint) Chunk {
	return chunkFromPayload(p.ID, p.Score, p.Payload)
}

func chunkFromPoint(p *qdrant.Point) Chunk {
	return chunkFromPayload(p.ID, 0, p.Payload)
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
