// Package query implements the per-request orchestration pipeline:
// validation, intent classification, retrieval, Map-Reduce synthesis,
// and deterministic fallbacks.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks validation failures: malformed query, unknown
// scope, or a single-document request without a target document.
// Surfaced immediately, never retried; maps to HTTP 400.
var ErrInvalidRequest = errors.New("invalid request")

// Scope restricts a query to one document or the whole corpus. The
// values match the wire protocol.
type Scope string

const (
	// ScopeCurrentFile restricts retrieval to one document.
	ScopeCurrentFile Scope = "current_file"

	// ScopeAllFiles lets retrieval draw from every document.
	ScopeAllFiles Scope = "all_files"
)

// Request is one incoming query. Created per request, never persisted.
type Request struct {
	Query   string
	Scope   Scope
	DocID   string
	TopK    int
	Debug   bool
	Filters map[string]string
}

// recognizedFilterKeys is the closed set of caller-suppliable filter
// keys. Anything else is dropped (with a warning), never silently used.
var recognizedFilterKeys = map[string]bool{
	"doc_id":      true,
	"source_file": true,
}

// normalize validates the request and fills defaults in place.
//
// Rules: the query must be non-empty after trimming; an empty scope
// defaults to all_files and any other unknown value is rejected;
// current_file scope requires a doc_id; topK is clamped into
// [1, maxContextChunks] before any retrieval call.
func (r *Request) normalize(defaultTopK, maxContextChunks int) error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("%w: query must be a non-empty string", ErrInvalidRequest)
	}

	switch r.Scope {
	case "":
		r.Scope = ScopeAllFiles
	case ScopeCurrentFile, ScopeAllFiles:
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidRequest, r.Scope)
	}

	if r.Scope == ScopeCurrentFile && strings.TrimSpace(r.DocID) == "" {
		return fmt.Errorf("%w: doc_id is required when scope is %s", ErrInvalidRequest, ScopeCurrentFile)
	}
	r.DocID = strings.TrimSpace(r.DocID)

	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.TopK < 1 {
		r.TopK = 1
	}
	if r.TopK > maxContextChunks {
		r.TopK = maxContextChunks
	}

	return nil
}
