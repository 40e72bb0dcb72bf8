package driven

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// RecordStore persists records and their derived keyword and embedding
// indexes. Implementations must provide a uniqueness constraint on the
// canonical key and atomic multi-row transactions.
type RecordStore interface {
	// GetByKey looks a record up by its canonical key. Returns
	// domain.ErrNotFound when absent. Not owner-scoped: existence
	// checks precede ownership.
	GetByKey(ctx context.Context, key domain.CanonicalKey) (*domain.Record, error)

	// GetByID retrieves a record by id. When ownerID is non-empty,
	// an owned record is only returned to its owner; ownerless
	// records are returned to anyone.
	GetByID(ctx context.Context, id, ownerID string) (*domain.Record, error)

	// Upsert inserts a record for rec.Key or updates the existing
	// row in place, preserving ID and CreatedAt. The keyword set and
	// the embedding are fully replaced in the same transaction as
	// the record write; partial application is never observable.
	// Returns the record id (existing or freshly assigned).
	Upsert(ctx context.Context, rec *domain.Record, keywords []string, embedding []float32) (string, error)

	// Keywords returns the current keyword set for a record.
	Keywords(ctx context.Context, recordID string) ([]string, error)

	// Embedding returns the stored vector, nil when none exists.
	Embedding(ctx context.Context, recordID string) ([]float32, error)

	// SearchByKeyword returns records whose keyword set contains the
	// substring (case-insensitive), newest first.
	SearchByKeyword(ctx context.Context, substring, ownerID string) ([]domain.Record, error)

	// SearchByURL returns records whose canonical key contains the
	// substring, newest first.
	SearchByURL(ctx context.Context, substring, ownerID string) ([]domain.Record, error)

	// Related ranks other records by count of shared keywords with
	// the target, descending, ties broken by UpdatedAt descending.
	// The target itself is excluded.
	Related(ctx context.Context, recordID string, limit int, ownerID string) ([]RelatedRecord, error)

	// Recent returns the newest records, owner-scoped.
	Recent(ctx context.Context, limit int, ownerID string) ([]domain.Record, error)

	// ListBySource returns records of one source type, newest first.
	ListBySource(ctx context.Context, source domain.SourceType, ownerID string) ([]domain.Record, error)

	// Stats summarises the visible store contents.
	Stats(ctx context.Context, ownerID string) (*domain.Stats, error)

	// Close releases the underlying storage handle.
	Close() error
}

// RelatedRecord is a record annotated with how many keywords it shares
// with the relatedness target.
type RelatedRecord struct {
	domain.Record

	// SharedKeywords is the overlap count used for ranking.
	SharedKeywords int
}
