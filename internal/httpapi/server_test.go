package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/query"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
	"github.com/fyrsmithlabs/docquery/internal/synthesis"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type stubSearcher struct {
	result *retrieval.Result
	err    error
}

func (s stubSearcher) Search(context.Context, []float32, int, retrieval.Filters) (*retrieval.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.result == nil {
		return &retrieval.Result{}, nil
	}
	return s.result, nil
}

type stubLister struct {
	docs []retrieval.DocumentInfo
}

func (s stubLister) ListDocuments(context.Context) ([]retrieval.DocumentInfo, error) {
	return s.docs, nil
}

type stubMapper struct {
	answer string
	err    error
}

func (s stubMapper) MapAll(_ context.Context, _ string, docs []retrieval.DocumentChunks) ([]synthesis.PerDocumentAnswer, error) {
	if s.err != nil {
		return nil, s.err
	}
	answers := make([]synthesis.PerDocumentAnswer, len(docs))
	for i, doc := range docs {
		answers[i] = synthesis.PerDocumentAnswer{
			DocID:      doc.DocID,
			SourceFile: doc.SourceFile,
			AnswerText: s.answer,
		}
	}
	return answers, nil
}

func (s stubMapper) Answer(context.Context, string, string, []retrieval.Chunk) (string, error) {
	return s.answer, s.err
}

type stubMerger struct {
	answer string
}

func (s stubMerger) Reduce(context.Context, string, []synthesis.PerDocumentAnswer) (string, error) {
	return s.answer, nil
}

type stubHealth struct {
	err error
}

func (s stubHealth) Health(context.Context) error { return s.err }

type serverOptions struct {
	searcher stubSearcher
	lister   stubLister
	mapper   stubMapper
	merger   stubMerger
	health   stubHealth
}

func newTestServer(t *testing.T, opts serverOptions) *Server {
	t.Helper()
	logger := logging.NewTestLogger().Logger
	orchestrator := query.NewOrchestrator(
		stubEmbedder{}, opts.searcher, opts.lister, opts.mapper, opts.merger,
		nil, query.Config{}, logger,
	)
	server, err := NewServer(orchestrator, opts.health, logger, nil)
	require.NoError(t, err)
	return server
}

func doRequest(server *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestNewServerValidation(t *testing.T) {
	logger := logging.NewTestLogger().Logger

	_, err := NewServer(nil, nil, logger, nil)
	require.Error(t, err)

	orchestrator := query.NewOrchestrator(
		stubEmbedder{}, stubSearcher{}, stubLister{}, stubMapper{}, stubMerger{},
		nil, query.Config{}, logger,
	)
	_, err = NewServer(orchestrator, nil, nil, nil)
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, serverOptions{})
		rec := doRequest(server, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
	})

	t.Run("degraded when store unreachable", func(t *testing.T) {
		server := newTestServer(t, serverOptions{
			health: stubHealth{err: errors.New("connection refused")},
		})
		rec := doRequest(server, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
	})
}

func TestQueryEndpointContent(t *testing.T) {
	server := newTestServer(t, serverOptions{
		searcher: stubSearcher{result: &retrieval.Result{Chunks: []retrieval.Chunk{
			{PointID: "p1", DocID: "doc-a", SourceFile: "a.pdf", Position: 0, Score: 0.9, Text: "alpha"},
		}}},
		mapper: stubMapper{answer: "The candidate is an engineer."},
	})

	rec := doRequest(server, http.MethodPost, "/api/v1/query",
		`{"query": "what does the candidate do?", "scope": "all_files"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "what does the candidate do?", resp.Query)
	assert.Equal(t, "all_files", resp.Scope)
	assert.Contains(t, resp.Answer, "The candidate is an engineer.")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "doc-a", resp.Sources[0].DocID)
	assert.Nil(t, resp.Debug)
}

func TestQueryEndpointMetadata(t *testing.T) {
	server := newTestServer(t, serverOptions{
		lister: stubLister{docs: []retrieval.DocumentInfo{
			{DocID: "doc-a", SourceFile: "a.pdf"},
			{DocID: "doc-b", SourceFile: "b.pdf"},
		}},
	})

	rec := doRequest(server, http.MethodPost, "/api/v1/query",
		`{"query": "what documents do you have?"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MetadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "metadata", resp.Intent)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "a.pdf", resp.Documents[0].SourceFile)
}

func TestQueryEndpointEmptyResult(t *testing.T) {
	server := newTestServer(t, serverOptions{})

	rec := doRequest(server, http.MethodPost, "/api/v1/query",
		`{"query": "what is the salary?"}`)

	// No relevant content is a successful response, not an error.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, synthesis.NotFoundAnswer, resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
}

func TestQueryEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query": `},
		{"empty query", `{"query": ""}`},
		{"unknown scope", `{"query": "q", "scope": "this_file"}`},
		{"current_file without doc_id", `{"query": "q", "scope": "current_file"}`},
	}

	server := newTestServer(t, serverOptions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(server, http.MethodPost, "/api/v1/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestQueryEndpointUpstreamFailures(t *testing.T) {
	t.Run("vector store down", func(t *testing.T) {
		server := newTestServer(t, serverOptions{
			searcher: stubSearcher{err: retrieval.ErrUnavailable},
		})
		rec := doRequest(server, http.MethodPost, "/api/v1/query", `{"query": "q"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "vector store unavailable", resp.Error)
	})

	t.Run("synthesis failure", func(t *testing.T) {
		server := newTestServer(t, serverOptions{
			searcher: stubSearcher{result: &retrieval.Result{Chunks: []retrieval.Chunk{
				{PointID: "p1", DocID: "doc-a", SourceFile: "a.pdf", Text: "alpha"},
			}}},
			mapper: stubMapper{err: synthesis.ErrSynthesisFailed},
		})
		rec := doRequest(server, http.MethodPost, "/api/v1/query", `{"query": "q"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "answer synthesis failed", resp.Error)
	})
}
