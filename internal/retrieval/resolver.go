package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/qdrant"
	"go.uber.org/zap"
)

// MetadataResolver lists the distinct documents known to the system.
// It answers metadata-intent queries without touching the embedding
// provider or the language model.
type MetadataResolver struct {
	store  qdrant.Client
	config Config
	logger *logging.Logger
}

// NewMetadataResolver creates a resolver over the given store.
func NewMetadataResolver(store qdrant.Client, config Config, logger *logging.Logger) *MetadataResolver {
	config.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MetadataResolver{
		store:  store,
		config: config,
		logger: logger.Named("metadata"),
	}
}

// ListDocuments returns every distinct document, ordered by doc_id.
//
// Each document has exactly one lead chunk (position 0), so listing
// lead chunks enumerates the corpus. Duplicate doc_ids keep the first
// occurrence; an empty corpus yields an empty slice, not an error.
func (m *MetadataResolver) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	points, err := m.store.Scroll(ctx, m.config.Collection,
		&qdrant.Filter{Must: []qdrant.Condition{qdrant.MatchInt(PayloadChunkIndex, 0)}},
		uint32(m.config.MaxListDocuments), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	seen := make(map[string]bool, len(points))
	docs := make([]DocumentInfo, 0, len(points))
	for _, p := range points {
		docID := payloadString(p.Payload, PayloadDocID)
		if docID == "" || seen[docID] {
			continue
		}
		seen[docID] = true
		docs = append(docs, DocumentInfo{
			DocID:      docID,
			SourceFile: payloadString(p.Payload, PayloadSourceFile),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })

	m.logger.Debug(ctx, "listed documents", zap.Int("count", len(docs)))
	return docs, nil
}
