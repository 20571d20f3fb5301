package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/qdrant"
	"go.uber.org/zap"
)

// Config holds retrieval configuration.
type Config struct {
	// Collection is the Qdrant collection holding document chunks.
	// Default: "documents" (matches the ingestion pipeline).
	Collection string `koanf:"collection"`

	// ScoreThreshold is the minimum similarity score for a hit to be
	// admissible. This is the sole admissibility gate; an empty result
	// after thresholding means "no relevant content", not an error.
	// Default: 0.15.
	ScoreThreshold float32 `koanf:"score_threshold"`

	// MaxDocuments caps how many distinct documents balanced retrieval
	// enumerates, bounding cost on large corpora. Default: 100.
	MaxDocuments int `koanf:"max_documents"`

	// MaxListDocuments bounds the metadata document listing. Kept
	// separate from MaxDocuments: listing a corpus is one cheap scroll,
	// balanced retrieval is one similarity search per document.
	// Default: 1000.
	MaxListDocuments int `koanf:"max_list_documents"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = 0.15
	}
	if c.MaxDocuments == 0 {
		c.MaxDocuments = 100
	}
	if c.MaxListDocuments == 0 {
		c.MaxListDocuments = 1000
	}
}

// Retriever issues similarity queries against the vector store with
// single-document or balanced multi-document strategies. Each document's
// lead chunk is unioned in so the answer always has access to a
// title/header even when it scores low on pure similarity.
type Retriever struct {
	store  qdrant.Client
	config Config
	logger *logging.Logger
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(store qdrant.Client, config Config, logger *logging.Logger) *Retriever {
	config.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Retriever{
		store:  store,
		config: config,
		logger: logger.Named("retriever"),
	}
}

// Filters restricts retrieval to matching chunks. The key set is closed:
// only doc_id and source_file are recognized anywhere in the pipeline.
// A non-empty DocID pins retrieval to that document (single-document mode).
type Filters struct {
	DocID      string
	SourceFile string
}

// conditions translates the filters into store conditions.
func (f Filters) conditions() []qdrant.Condition {
	var conds []qdrant.Condition
	if f.DocID != "" {
		conds = append(conds, qdrant.MatchKeyword(PayloadDocID, f.DocID))
	}
	if f.SourceFile != "" {
		conds = append(conds, qdrant.MatchKeyword(PayloadSourceFile, f.SourceFile))
	}
	return conds
}

// Search retrieves chunks for the given query vector.
//
// A non-empty filters.DocID restricts retrieval to that document
// (single-document mode); otherwise retrieval is balanced across all
// documents in the corpus. The returned result is ordered by score
// descending with lead chunks appended; an empty result means no chunk
// cleared the score threshold.
func (r *Retriever) Search(ctx context.Context, vector []float32, topK int, filters Filters) (*Result, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}

	if filters.DocID != "" {
		return r.searchSingleDocument(ctx, vector, topK, filters)
	}
	return r.searchAllDocuments(ctx, vector, topK, filters)
}

// searchSingleDocument performs similarity search pinned to one document,
// then unions in that document's lead chunk.
func (r *Retriever) searchSingleDocument(ctx context.Context, vector []float32, topK int, filters Filters) (*Result, error) {
	docID := filters.DocID
	filter := &qdrant.Filter{Must: filters.conditions()}

	hits, err := r.store.Search(ctx, r.config.Collection, vector, uint64(topK), filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	scored := r.threshold(ctx, hits)
	if len(scored) == 0 {
		r.logger.Info(ctx, "no chunks above score threshold",
			zap.String("doc_id", docID),
			zap.Float32("threshold", r.config.ScoreThreshold),
		)
		return &Result{}, nil
	}

	leads, err := r.fetchLeadChunks(ctx, docID, filters.SourceFile)
	if err != nil {
		return nil, err
	}

	chunks := dedupe(append(scored, leads...))
	r.logger.Debug(ctx, "single-document retrieval complete",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)),
	)
	return &Result{Chunks: chunks}, nil
}

// searchAllDocuments balances retrieval across every document in the
// corpus: each document gets its own capped similarity search so no
// single document can starve others of representation.
func (r *Retriever) searchAllDocuments(ctx context.Context, vector []float32, topK int, filters Filters) (*Result, error) {
	// The source_file filter applies to document enumeration too, so an
	// excluded document's lead never reaches the result.
	leadConds := []qdrant.Condition{qdrant.MatchInt(PayloadChunkIndex, 0)}
	if filters.SourceFile != "" {
		leadConds = append(leadConds, qdrant.MatchKeyword(PayloadSourceFile, filters.SourceFile))
	}
	leadPoints, err := r.store.Scroll(ctx, r.config.Collection,
		&qdrant.Filter{Must: leadConds},
		uint32(r.config.MaxDocuments), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	leads := make([]Chunk, 0, len(leadPoints))
	docIDs := make([]string, 0, len(leadPoints))
	seen := make(map[string]bool)
	for _, p := range leadPoints {
		chunk := chunkFromPoint(p)
		if chunk.DocID == "" || seen[chunk.DocID] {
			continue
		}
		seen[chunk.DocID] = true
		docIDs = append(docIDs, chunk.DocID)
		leads = append(leads, chunk)
	}
	sort.Strings(docIDs)

	if len(docIDs) == 0 {
		return &Result{}, nil
	}

	// Per-document cap so no document starves the others.
	perDocLimit := topK / len(docIDs)
	if perDocLimit < 2 {
		perDocLimit = 2
	}

	var scored []Chunk
	for _, docID := range docIDs {
		perDoc := filters
		perDoc.DocID = docID
		filter := &qdrant.Filter{Must: perDoc.conditions()}
		hits, err := r.store.Search(ctx, r.config.Collection, vector, uint64(perDocLimit), filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		scored = append(scored, r.threshold(ctx, hits)...)
	}

	if len(scored) == 0 {
		r.logger.Info(ctx, "no chunks above score threshold",
			zap.Int("documents", len(docIDs)),
			zap.Float32("threshold", r.config.ScoreThreshold),
		)
		return &Result{}, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// Keep enough raw material for per-document grouping downstream.
	if limit := 2 * topK; len(scored) > limit {
		scored = scored[:limit]
	}

	chunks := dedupe(append(scored, leads...))
	r.logger.Debug(ctx, "balanced retrieval complete",
		zap.Int("documents", len(docIDs)),
		zap.Int("per_doc_limit", perDocLimit),
		zap.Int("chunks", len(chunks)),
	)
	return &Result{Chunks: chunks}, nil
}

// fetchLeadChunks fetches the lead chunk (position 0) of one document,
// honoring the caller's source_file restriction.
func (r *Retriever) fetchLeadChunks(ctx context.Context, docID, sourceFile string) ([]Chunk, error) {
	conds := []qdrant.Condition{
		qdrant.MatchKeyword(PayloadDocID, docID),
		qdrant.MatchInt(PayloadChunkIndex, 0),
	}
	if sourceFile != "" {
		conds = append(conds, qdrant.MatchKeyword(PayloadSourceFile, sourceFile))
	}
	points, err := r.store.Scroll(ctx, r.config.Collection,
		&qdrant.Filter{Must: conds},
		1, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	chunks := make([]Chunk, 0, len(points))
	for _, p := range points {
		chunks = append(chunks, chunkFromPoint(p))
	}
	return chunks, nil
}

// threshold drops hits below the configured minimum score.
func (r *Retriever) threshold(ctx context.Context, hits []*qdrant.ScoredPoint) []Chunk {
	chunks := make([]Chunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.config.ScoreThreshold {
			continue
		}
		chunks = append(chunks, chunkFromScoredPoint(hit))
	}
	return chunks
}

// dedupe keeps the first occurrence of each point ID.
func dedupe(chunks []Chunk) []Chunk {
	seen := make(map[string]bool, len(chunks))
	result := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.PointID] {
			continue
		}
		seen[c.PointID] = true
		result = append(result, c)
	}
	return result
}
