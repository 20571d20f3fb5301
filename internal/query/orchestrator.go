package query

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/docquery/internal/intent"
	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
	"github.com/fyrsmithlabs/docquery/internal/synthesis"
	"go.uber.org/zap"
)

// Collaborator interfaces. The orchestrator owns control flow only;
// everything external sits behind one of these.

// Embedder computes the query embedding.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves chunks for a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int, filters retrieval.Filters) (*retrieval.Result, error)
}

// DocumentLister enumerates the distinct documents in the corpus.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]retrieval.DocumentInfo, error)
}

// Mapper runs the Map phase and the single-call content path.
type Mapper interface {
	MapAll(ctx context.Context, question string, docs []retrieval.DocumentChunks) ([]synthesis.PerDocumentAnswer, error)
	Answer(ctx context.Context, question, sourceFile string, chunks []retrieval.Chunk) (string, error)
}

// Merger runs the Reduce phase.
type Merger interface {
	Reduce(ctx context.Context, question string, answers []synthesis.PerDocumentAnswer) (string, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// DefaultTopK is used when the caller does not request a topK.
	// Default: 5.
	DefaultTopK int `koanf:"default_top_k"`

	// MaxContextChunks caps topK; larger requests are clamped before
	// any retrieval call. Default: 8.
	MaxContextChunks int `koanf:"max_context_chunks"`

	// Environment gates the debug payload: chunk previews are only
	// returned outside "production". Default: "development".
	Environment string `koanf:"environment"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.DefaultTopK == 0 {
		c.DefaultTopK = 5
	}
	if c.MaxContextChunks == 0 {
		c.MaxContextChunks = 8
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Result is the terminal output of the pipeline. Not persisted.
type Result struct {
	Query  string
	Scope  Scope
	Intent intent.Intent

	// Content intent
	Answer  string
	Sources []retrieval.DocumentInfo
	Debug   *DebugInfo

	// Metadata intent
	Documents []retrieval.DocumentInfo
	Count     int
}

// DebugInfo carries a preview of the ranked chunks actually used.
// Only populated when requested and outside production.
type DebugInfo struct {
	Chunks []ChunkPreview `json:"chunks"`
}

// ChunkPreview is one ranked chunk, truncated for inspection.
type ChunkPreview struct {
	DocID    string  `json:"doc_id"`
	Position int     `json:"position"`
	Score    float32 `json:"score"`
	Text     string  `json:"text"`
}

// Orchestrator drives one query through the pipeline:
// Validate -> ClassifyIntent -> (MetadataBranch | ContentBranch) -> Respond.
type Orchestrator struct {
	embedder   Embedder
	searcher   Searcher
	lister     DocumentLister
	mapper     Mapper
	merger     Merger
	classifier *synthesis.NotFoundClassifier
	config     Config
	logger     *logging.Logger
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(
	embedder Embedder,
	searcher Searcher,
	lister DocumentLister,
	mapper Mapper,
	merger Merger,
	classifier *synthesis.NotFoundClassifier,
	config Config,
	logger *logging.Logger,
) *Orchestrator {
	config.ApplyDefaults()
	if classifier == nil {
		classifier = synthesis.NewNotFoundClassifier(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		embedder:   embedder,
		searcher:   searcher,
		lister:     lister,
		mapper:     mapper,
		merger:     merger,
		classifier: classifier,
		config:     config,
		logger:     logger.Named("orchestrator"),
	}
}

// Execute runs one query through the pipeline.
//
// Returned errors are classified by sentinel: ErrInvalidRequest for
// validation failures, retrieval.ErrUnavailable for a broken store,
// synthesis.ErrSynthesisFailed for model failures. An empty result is
// not an error; it yields the canonical fallback answer.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.normalize(o.config.DefaultTopK, o.config.MaxContextChunks); err != nil {
		return nil, err
	}

	queryIntent := intent.Classify(req.Query)
	o.logger.Info(ctx, "query received",
		zap.String("scope", string(req.Scope)),
		zap.String("intent", string(queryIntent)),
		zap.Int("top_k", req.TopK),
	)

	if queryIntent == intent.IntentMetadata {
		return o.metadataBranch(ctx, req)
	}
	return o.contentBranch(ctx, req)
}

// metadataBranch answers corpus questions without embedding, retrieval,
// or a model call.
func (o *Orchestrator) metadataBranch(ctx context.Context, req Request) (*Result, error) {
	docs, err := o.lister.ListDocuments(ctx)
	if err != nil {
		o.logger.Error(ctx, "metadata listing failed",
			zap.String("scope", string(req.Scope)),
			zap.Error(err),
		)
		return nil, err
	}

	return &Result{
		Query:     req.Query,
		Scope:     req.Scope,
		Intent:    intent.IntentMetadata,
		Documents: docs,
		Count:     len(docs),
	}, nil
}

// contentBranch runs embedding, retrieval, ordering, and synthesis.
func (o *Orchestrator) contentBranch(ctx context.Context, req Request) (*Result, error) {
	vector, err := o.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		o.logger.Error(ctx, "query embedding failed",
			zap.String("scope", string(req.Scope)),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := o.searcher.Search(ctx, vector, req.TopK, o.retrievalFilters(ctx, req))
	if err != nil {
		o.logger.Error(ctx, "retrieval failed",
			zap.String("scope", string(req.Scope)),
			zap.String("doc_id", req.DocID),
			zap.Error(err),
		)
		return nil, err
	}

	if result.Empty() {
		o.logger.Info(ctx, "no relevant content",
			zap.String("scope", string(req.Scope)),
			zap.String("doc_id", req.DocID),
		)
		return &Result{
			Query:   req.Query,
			Scope:   req.Scope,
			Intent:  intent.IntentContent,
			Answer:  synthesis.NotFoundAnswer,
			Sources: []retrieval.DocumentInfo{},
		}, nil
	}

	ordered := retrieval.Order(result.Chunks, req.TopK)
	groups := retrieval.GroupByDocument(ordered)

	answer, usedMapReduce, err := o.synthesize(ctx, req, ordered, groups)
	if err != nil {
		o.logger.Error(ctx, "synthesis failed",
			zap.String("scope", string(req.Scope)),
			zap.Strings("doc_ids", documentIDs(groups)),
			zap.Error(err),
		)
		return nil, err
	}

	answer = o.postProcess(ctx, answer, ordered, groups, usedMapReduce)

	res := &Result{
		Query:   req.Query,
		Scope:   req.Scope,
		Intent:  intent.IntentContent,
		Answer:  answer,
		Sources: distinctSources(groups),
	}
	if req.Debug && o.config.Environment != "production" {
		res.Debug = debugInfo(ordered)
	}
	return res, nil
}

// retrievalFilters builds the backend-authoritative filter set. The
// scope-derived doc_id always wins over a caller-supplied filter of the
// same key; unrecognized keys are dropped with a warning.
func (o *Orchestrator) retrievalFilters(ctx context.Context, req Request) retrieval.Filters {
	var filters retrieval.Filters

	for key, value := range req.Filters {
		if !recognizedFilterKeys[key] {
			o.logger.Warn(ctx, "dropping unrecognized filter key", zap.String("key", key))
			continue
		}
		switch key {
		case "doc_id":
			filters.DocID = value
		case "source_file":
			filters.SourceFile = value
		}
	}

	if req.Scope == ScopeCurrentFile {
		filters.DocID = req.DocID
	} else {
		// all_files scope draws from the whole corpus; a caller filter
		// must not narrow it to one document through the back door.
		filters.DocID = ""
	}

	return filters
}

// synthesize produces the raw answer text. Multi-document results under
// all_files scope go through Map-Reduce; everything else is a single
// map-style call over the combined chunk set.
func (o *Orchestrator) synthesize(ctx context.Context, req Request, ordered []retrieval.Chunk, groups []retrieval.DocumentChunks) (string, bool, error) {
	if req.Scope == ScopeAllFiles && len(groups) > 1 {
		answers, err := o.mapper.MapAll(ctx, req.Query, groups)
		if err != nil {
			return "", true, err
		}
		answer, err := o.merger.Reduce(ctx, req.Query, answers)
		return answer, true, err
	}

	answer, err := o.mapper.Answer(ctx, req.Query, sourceLabel(groups), ordered)
	return answer, false, err
}

// postProcess applies the deterministic fallbacks: canonical answer for
// empty text, the name-extraction heuristic when the model declared
// failure, and the source prefix on non-Map-Reduce answers.
func (o *Orchestrator) postProcess(ctx context.Context, answer string, ordered []retrieval.Chunk, groups []retrieval.DocumentChunks, usedMapReduce bool) string {
	if strings.TrimSpace(answer) == "" {
		answer = synthesis.NotFoundAnswer
	}

	if o.classifier.Match(answer) {
		if name := extractCandidateName(ordered); name != "" {
			o.logger.Info(ctx, "recovered candidate name after model miss",
				zap.String("name", name),
			)
			answer = candidateNameAnswer(name)
		}
	}

	if !usedMapReduce && !o.classifier.Match(answer) {
		labels := distinctSourceLabels(groups)
		if len(labels) > 0 {
			answer = "Answering from: " + strings.Join(labels, ", ") + "\n\n" + answer
		}
	}

	return answer
}

// sourceLabel names the document set for a single synthesis call.
func sourceLabel(groups []retrieval.DocumentChunks) string {
	labels := distinctSourceLabels(groups)
	if len(labels) == 0 {
		return "the uploaded document"
	}
	return strings.Join(labels, ", ")
}

func distinctSourceLabels(groups []retrieval.DocumentChunks) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, g := range groups {
		if g.SourceFile == "" || seen[g.SourceFile] {
			continue
		}
		seen[g.SourceFile] = true
		labels = append(labels, g.SourceFile)
	}
	return labels
}

// distinctSources deduplicates (doc_id, source_file) pairs, in group order.
func distinctSources(groups []retrieval.DocumentChunks) []retrieval.DocumentInfo {
	seen := make(map[retrieval.DocumentInfo]bool)
	sources := make([]retrieval.DocumentInfo, 0, len(groups))
	for _, g := range groups {
		info := retrieval.DocumentInfo{DocID: g.DocID, SourceFile: g.SourceFile}
		if seen[info] {
			continue
		}
		seen[info] = true
		sources = append(sources, info)
	}
	return sources
}

func documentIDs(groups []retrieval.DocumentChunks) []string {
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.DocID
	}
	return ids
}

func debugInfo(ordered []retrieval.Chunk) *DebugInfo {
	const previewLen = 160

	previews := make([]ChunkPreview, len(ordered))
	for i, c := range ordered {
		text := c.Text
		if len(text) > previewLen {
			// Back up to a rune boundary so the preview stays valid UTF-8.
			cut := previewLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		previews[i] = ChunkPreview{
			DocID:    c.DocID,
			Position: c.Position,
			Score:    c.Score,
			Text:     text,
		}
	}
	return &DebugInfo{Chunks: previews}
}
