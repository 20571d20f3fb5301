package httpapi

import (
	"github.com/fyrsmithlabs/docquery/internal/intent"
	"github.com/fyrsmithlabs/docquery/internal/query"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
)

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Query   string            `json:"query"`
	Scope   string            `json:"scope"`
	DocID   string            `json:"doc_id,omitempty"`
	TopK    int               `json:"topK,omitempty"`
	Debug   bool              `json:"debug,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// QueryResponse is the response body for a content query.
type QueryResponse struct {
	Query   string                   `json:"query"`
	Scope   string                   `json:"scope"`
	Answer  string                   `json:"answer"`
	Sources []retrieval.DocumentInfo `json:"sources"`
	Debug   *query.DebugInfo         `json:"debug,omitempty"`
}

// MetadataResponse is the response body for a metadata-intent query.
type MetadataResponse struct {
	Query     string                   `json:"query"`
	Intent    string                   `json:"intent"`
	Documents []retrieval.DocumentInfo `json:"documents"`
	Count     int                      `json:"count"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is the error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// responseFromResult converts a pipeline result into the wire shape.
func responseFromResult(result *query.Result) interface{} {
	if result.Intent == intent.IntentMetadata {
		docs := result.Documents
		if docs == nil {
			docs = []retrieval.DocumentInfo{}
		}
		return MetadataResponse{
			Query:     result.Query,
			Intent:    string(result.Intent),
			Documents: docs,
			Count:     result.Count,
		}
	}

	sources := result.Sources
	if sources == nil {
		sources = []retrieval.DocumentInfo{}
	}
	return QueryResponse{
		Query:   result.Query,
		Scope:   string(result.Scope),
		Answer:  result.Answer,
		Sources: sources,
		Debug:   result.Debug,
	}
}
