// Package memory provides an in-memory RecordStore for unit tests and
// ephemeral use. It mirrors the sqlite adapter's semantics, including
// the owner visibility rule and replace-not-merge index writes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu         sync.RWMutex
	records    map[string]domain.Record // by id
	byKey      map[domain.CanonicalKey]string
	keywords   map[string][]string
	embeddings map[string][]float32
	now        func() time.Time
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records:    make(map[string]domain.Record),
		byKey:      make(map[domain.CanonicalKey]string),
		keywords:   make(map[string][]string),
		embeddings: make(map[string][]float32),
		now:        time.Now,
	}
}

// SetClock overrides the wall clock. Test hook.
func (s *RecordStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetByKey looks a record up by canonical key.
func (s *RecordStore) GetByKey(_ context.Context, key domain.CanonicalKey) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := s.records[id]
	return &rec, nil
}

// GetByID retrieves a record by id, honouring the owner rule.
func (s *RecordStore) GetByID(_ context.Context, id, ownerID string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok || !rec.VisibleTo(ownerID) {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Upsert inserts or updates the record for rec.Key and replaces its
// keyword set and embedding. The whole write happens under one lock,
// so partial state is never observable.
func (s *RecordStore) Upsert(_ context.Context, rec *domain.Record, keywords []string, embedding []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := *rec

	if id, ok := s.byKey[rec.Key]; ok {
		prev := s.records[id]
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = now
	}

	s.records[stored.ID] = stored
	s.byKey[stored.Key] = stored.ID
	s.keywords[stored.ID] = dedupeKeywords(keywords)
	if len(embedding) > 0 {
		s.embeddings[stored.ID] = append([]float32(nil), embedding...)
	} else {
		delete(s.embeddings, stored.ID)
	}
	return stored.ID, nil
}

// Keywords returns the current keyword set for a record.
func (s *RecordStore) Keywords(_ context.Context, recordID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.keywords[recordID]...), nil
}

// Embedding returns the stored vector, nil when none exists.
func (s *RecordStore) Embedding(_ context.Context, recordID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float32(nil), s.embeddings[recordID]...), nil
}

// SearchByKeyword matches keyword substrings case-insensitively.
func (s *RecordStore) SearchByKeyword(_ context.Context, substring, ownerID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(substring)
	var result []domain.Record
	for id, kws := range s.keywords {
		rec := s.records[id]
		if !rec.VisibleTo(ownerID) {
			continue
		}
		for _, kw := range kws {
			if strings.Contains(strings.ToLower(kw), needle) {
				result = append(result, rec)
				break
			}
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// SearchByURL matches canonical-key substrings.
func (s *RecordStore) SearchByURL(_ context.Context, substring, ownerID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(substring)
	var result []domain.Record
	for _, rec := range s.records {
		if !rec.VisibleTo(ownerID) {
			continue
		}
		if strings.Contains(strings.ToLower(string(rec.Key)), needle) {
			result = append(result, rec)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// Related ranks other records by shared keyword count.
func (s *RecordStore) Related(_ context.Context, recordID string, limit int, ownerID string) ([]driven.RelatedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.records[recordID]; !ok {
		return nil, domain.ErrNotFound
	}

	target := make(map[string]bool)
	for _, kw := range s.keywords[recordID] {
		target[kw] = true
	}

	var result []driven.RelatedRecord
	for id, kws := range s.keywords {
		if id == recordID {
			continue
		}
		rec := s.records[id]
		if !rec.VisibleTo(ownerID) {
			continue
		}
		shared := 0
		for _, kw := range kws {
			if target[kw] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		result = append(result, driven.RelatedRecord{Record: rec, SharedKeywords: shared})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SharedKeywords != result[j].SharedKeywords {
			return result[i].SharedKeywords > result[j].SharedKeywords
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Recent returns the newest visible records.
func (s *RecordStore) Recent(_ context.Context, limit int, ownerID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Record
	for _, rec := range s.records {
		if rec.VisibleTo(ownerID) {
			result = append(result, rec)
		}
	}
	sortNewestFirst(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListBySource returns records of one source type.
func (s *RecordStore) ListBySource(_ context.Context, source domain.SourceType, ownerID string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Record
	for _, rec := range s.records {
		if rec.Source == source && rec.VisibleTo(ownerID) {
			result = append(result, rec)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// Stats summarises the visible store contents.
func (s *RecordStore) Stats(_ context.Context, ownerID string) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Stats{
		RecordsBySource: make(map[domain.SourceType]int),
		TopKeywords:     make(map[string]int),
	}
	unique := make(map[string]bool)
	for id, rec := range s.records {
		if !rec.VisibleTo(ownerID) {
			continue
		}
		stats.TotalRecords++
		stats.RecordsBySource[rec.Source]++
		for _, kw := range s.keywords[id] {
			stats.TotalKeywords++
			unique[kw] = true
			stats.TopKeywords[kw]++
		}
		stats.Recent = append(stats.Recent, rec)
	}
	stats.UniqueKeywords = len(unique)
	sortNewestFirst(stats.Recent)
	if len(stats.Recent) > 5 {
		stats.Recent = stats.Recent[:5]
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *RecordStore) Close() error {
	return nil
}

// dedupeKeywords applies the insert-or-ignore semantics: empty strings
// and duplicates are dropped, first occurrence order kept.
func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	var result []string
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		result = append(result, kw)
	}
	return result
}

func sortNewestFirst(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
}
