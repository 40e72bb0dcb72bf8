package driving

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
)

// QueryService serves read-only lookups against the store. No query
// operation ever triggers ingestion; an empty result is success.
type QueryService interface {
	// SearchByKeyword finds records whose keywords contain the
	// substring, case-insensitively, newest first.
	SearchByKeyword(ctx context.Context, substring, ownerID string) ([]domain.Record, error)

	// SearchByURL finds records whose canonical key contains the
	// substring, newest first.
	SearchByURL(ctx context.Context, substring, ownerID string) ([]domain.Record, error)

	// Related ranks records sharing keywords with the target.
	Related(ctx context.Context, recordID string, limit int, ownerID string) ([]driven.RelatedRecord, error)

	// Recent lists the newest records.
	Recent(ctx context.Context, limit int, ownerID string) ([]domain.Record, error)

	// ListBySource lists records of one source type.
	ListBySource(ctx context.Context, source domain.SourceType, ownerID string) ([]domain.Record, error)

	// Get retrieves one record with its keywords, honouring the
	// owner visibility rule.
	Get(ctx context.Context, recordID, ownerID string) (*domain.Record, []string, error)

	// Stats summarises the visible store contents.
	Stats(ctx context.Context, ownerID string) (*domain.Stats, error)
}
