// Package qdrant provides the gRPC client for the Qdrant vector database.
package qdrant

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")
)

// Client provides a unified interface to the Qdrant vector database.
// Implementations are transport-specific; the canonical one is the gRPC
// client below. Consumers fake this interface in tests.
type Client interface {
	// Search performs similarity search in a collection.
	Search(ctx context.Context, collection string, vector []float32, limit uint64, filter *Filter) ([]*ScoredPoint, error)

	// Scroll lists points matching a filter without similarity scoring.
	// withPayload toggles payload retrieval; ID-only listings are cheaper.
	Scroll(ctx context.Context, collection string, filter *Filter, limit uint32, withPayload bool) ([]*Point, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// Health performs a health check on the connection.
	Health(ctx context.Context) error

	// Close closes the client connection.
	Close() error
}

// Point represents a vector point in Qdrant.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint represents a search result with score.
type ScoredPoint struct {
	Point
	Score float32
}

// Filter represents a filter for search and scroll operations. All
// conditions must match (conjunction).
type Filter struct {
	Must []Condition
}

// Condition represents an equality condition on a payload field.
// Match accepts string or integer values.
type Condition struct {
	Field string
	Match interface{}
}

// MatchKeyword builds an equality condition on a string payload field.
func MatchKeyword(field, value string) Condition {
	return Condition{Field: field, Match: value}
}

// MatchInt builds an equality condition on an integer payload field.
func MatchInt(field string, value int64) Condition {
	return Condition{Field: field, Match: value}
}
