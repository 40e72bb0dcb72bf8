package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
	"github.com/custodia-labs/docvault/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// defaultRelatedLimit bounds relatedness results when the caller
// passes no limit.
const defaultRelatedLimit = 5

// QueryService serves read-only lookups. It never writes and never
// triggers ingestion; empty results are success.
type QueryService struct {
	store driven.RecordStore
}

// NewQueryService creates a query service over a record store.
func NewQueryService(store driven.RecordStore) *QueryService {
	return &QueryService{store: store}
}

// SearchByKeyword finds records by case-insensitive keyword substring.
func (s *QueryService) SearchByKeyword(ctx context.Context, substring, ownerID string) ([]domain.Record, error) {
	substring = strings.TrimSpace(substring)
	if substring == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.SearchByKeyword(ctx, substring, ownerID)
}

// SearchByURL finds records by canonical-key substring.
func (s *QueryService) SearchByURL(ctx context.Context, substring, ownerID string) ([]domain.Record, error) {
	substring = strings.TrimSpace(substring)
	if substring == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.SearchByURL(ctx, substring, ownerID)
}

// Related ranks records by keyword overlap with the target.
func (s *QueryService) Related(ctx context.Context, recordID string, limit int, ownerID string) ([]driven.RelatedRecord, error) {
	if recordID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	return s.store.Related(ctx, recordID, limit, ownerID)
}

// Recent lists the newest visible records.
func (s *QueryService) Recent(ctx context.Context, limit int, ownerID string) ([]domain.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Recent(ctx, limit, ownerID)
}

// ListBySource lists records of one source type.
func (s *QueryService) ListBySource(ctx context.Context, source domain.SourceType, ownerID string) ([]domain.Record, error) {
	if source == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.store.ListBySource(ctx, source, ownerID)
}

// Get retrieves one record and its keyword set, honouring the owner
// visibility rule.
func (s *QueryService) Get(ctx context.Context, recordID, ownerID string) (*domain.Record, []string, error) {
	rec, err := s.store.GetByID(ctx, recordID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	keywords, err := s.store.Keywords(ctx, recordID)
	if err != nil {
		return nil, nil, fmt.Errorf("reading keywords for %s: %w", recordID, err)
	}
	return rec, keywords, nil
}

// Stats summarises the visible store contents.
func (s *QueryService) Stats(ctx context.Context, ownerID string) (*domain.Stats, error) {
	return s.store.Stats(ctx, ownerID)
}
