package driving

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// ResolverService turns an ambiguous free-text query into a ranked
// set of candidate references.
type ResolverService interface {
	// Resolve runs the staged searches and composite scoring. An
	// empty candidate set yields a Resolution with a nil Best, not
	// an error; provider failures on individual stages degrade
	// recall without aborting.
	Resolve(ctx context.Context, query string) (*domain.Resolution, error)
}
