package driven

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// ContentFetcher retrieves the raw content behind a canonical key.
// One implementation exists per source type; they live outside this
// module. Any fetch failure aborts ingestion with the store unchanged.
type ContentFetcher interface {
	Fetch(ctx context.Context, key domain.CanonicalKey, source domain.SourceType) (string, error)
}

// Summariser turns raw content into a structured summary plus the
// keyword list used for indexing. The summary payload is stored
// verbatim; the core never interprets it. The focus hint is passed
// through from the caller untouched.
type Summariser interface {
	Summarise(ctx context.Context, content string, source domain.SourceType, focus string) (summary string, keywords []string, err error)
}

// Embedder produces a vector for raw content. It is optional: a nil
// Embedder (or an empty vector) is valid and simply leaves the record
// without an embedding.
type Embedder interface {
	Embed(ctx context.Context, content string) ([]float32, error)
}
