package retrieval

import "sort"

// Order sorts chunks for coherent context assembly: primarily by document
// ID (lexical) so each document's chunks stay contiguous, secondarily by
// position ascending so text reads in document order. Truncates to topK
// after ordering. Deterministic for identical inputs.
func Order(chunks []Chunk, topK int) []Chunk {
	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DocID != ordered[j].DocID {
			return ordered[i].DocID < ordered[j].DocID
		}
		return ordered[i].Position < ordered[j].Position
	})

	if topK > 0 && len(ordered) > topK {
		ordered = ordered[:topK]
	}
	return ordered
}

// GroupByDocument splits ordered chunks into per-document groups,
// preserving the input's document order. Input is expected to be the
// output of Order, so groups come out in lexical doc_id order.
func GroupByDocument(chunks []Chunk) []DocumentChunks {
	var groups []DocumentChunks
	index := make(map[string]int)

	for _, c := range chunks {
		i, ok := index[c.DocID]
		if !ok {
			index[c.DocID] = len(groups)
			groups = append(groups, DocumentChunks{
				DocID:      c.DocID,
				SourceFile: c.SourceFile,
				Chunks:     []Chunk{c},
			})
			continue
		}
		groups[i].Chunks = append(groups[i].Chunks, c)
		if groups[i].SourceFile == "" {
			groups[i].SourceFile = c.SourceFile
		}
	}

	return groups
}
