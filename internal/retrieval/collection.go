package retrieval

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/docquery/internal/qdrant"
)

// EnsureCollection verifies the chunk collection exists before the
// service starts answering queries. A missing collection means the
// ingestion pipeline has not run; failing at startup beats returning
// empty answers for every query.
func EnsureCollection(ctx context.Context, store qdrant.Client, collection string) error {
	exists, err := store.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", ErrUnavailable, collection, err)
	}
	if !exists {
		return fmt.Errorf("%w: collection %q does not exist; run the ingestion pipeline first",
			ErrUnavailable, collection)
	}
	return nil
}
