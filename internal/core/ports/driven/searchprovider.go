package driven

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// SearchProvider executes one query against an external document
// search service and returns candidate matches in provider order.
// Implementations own their network timeouts and rate limits; the
// resolver adds none of its own.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, error)
}
