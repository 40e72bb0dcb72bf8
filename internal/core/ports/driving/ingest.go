package driving

import (
	"context"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

// IngestOutcome says how an ingest request was satisfied.
type IngestOutcome string

const (
	// OutcomeCached means a fresh cached record was served as-is.
	OutcomeCached IngestOutcome = "cached"
	// OutcomeIngested means no record existed and one was created.
	OutcomeIngested IngestOutcome = "ingested"
	// OutcomeRefreshed means a stale (or force-refreshed) record was
	// regenerated in place.
	OutcomeRefreshed IngestOutcome = "refreshed"
)

// IngestRequest carries either a direct reference or a free-text
// query; exactly one must be set. Reference wins when both are.
type IngestRequest struct {
	// Reference is a URL or bare identifier, normalised directly.
	Reference string

	// Query is free text routed through fuzzy resolution first.
	Query string

	// Force routes even a fresh record to the refresh path. The
	// existing row is still updated, never duplicated.
	Force bool

	// Focus is an opaque hint passed through to the summariser.
	Focus string

	// OwnerID scopes the resulting record. Empty creates an
	// ownerless, globally visible record.
	OwnerID string
}

// IngestResult is the response to an ingest request.
type IngestResult struct {
	Outcome IngestOutcome

	Record *domain.Record

	// Keywords is the record's current keyword set.
	Keywords []string

	// Resolution is present when the request came in as a free-text
	// query.
	Resolution *domain.Resolution
}

// IngestService resolves references, decides cache reuse versus
// regeneration, and writes records through the store.
type IngestService interface {
	// Ingest serves a reference or query from the cache, fetching
	// and summarising only when the record is absent, stale, or
	// force-refreshed.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// Status reports the cache state for a reference without
	// triggering any fetch.
	Status(ctx context.Context, reference string) (domain.CacheStatus, *domain.Record, error)

	// IndexArtifact upserts one saved artifact file (the JSON layout
	// written by the fetch pipeline) into the store.
	IndexArtifact(ctx context.Context, path, ownerID string) (*domain.Record, error)

	// IndexDir walks a directory tree and indexes every JSON
	// artifact in it. Returns total and successfully indexed counts;
	// individual file failures are logged, not fatal.
	IndexDir(ctx context.Context, dir, ownerID string) (total, indexed int, err error)

	// MigrateCSV imports the legacy flat-file index (one
	// "type,timestamp,path" line per artifact) into the store.
	MigrateCSV(ctx context.Context, csvPath string) (int, error)
}
