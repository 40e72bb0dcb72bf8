package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
	"github.com/custodia-labs/docvault/internal/core/ports/driving"
	"github.com/custodia-labs/docvault/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// wikiLinkRe extracts [[wiki-link]] keywords from saved markdown.
var wikiLinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// IngestService owns the cache decision: serve a fresh record, or
// fetch, summarise and write a new generation in one atomic store
// operation.
type IngestService struct {
	store      driven.RecordStore
	resolver   driving.ResolverService
	fetcher    driven.ContentFetcher
	summariser driven.Summariser
	embedder   driven.Embedder
	staleness  time.Duration
	now        func() time.Time
}

// NewIngestService creates the ingestion service. The resolver is only
// needed for free-text queries and the embedder is optional; either
// may be nil. A non-positive staleness falls back to the default
// window.
func NewIngestService(
	store driven.RecordStore,
	resolver driving.ResolverService,
	fetcher driven.ContentFetcher,
	summariser driven.Summariser,
	embedder driven.Embedder,
	staleness time.Duration,
) *IngestService {
	if staleness <= 0 {
		staleness = domain.DefaultStaleness
	}
	return &IngestService{
		store:      store,
		resolver:   resolver,
		fetcher:    fetcher,
		summariser: summariser,
		embedder:   embedder,
		staleness:  staleness,
		now:        time.Now,
	}
}

// Ingest serves a reference or free-text query from the cache,
// regenerating only when the record is absent, stale, or forced.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	logger.Section("Ingest")

	ref := strings.TrimSpace(req.Reference)
	var resolution *domain.Resolution
	if ref == "" {
		query := strings.TrimSpace(req.Query)
		if query == "" {
			return nil, domain.ErrInvalidInput
		}
		if s.resolver == nil {
			return nil, fmt.Errorf("resolving %q: no resolver configured: %w", query, domain.ErrInvalidInput)
		}
		res, err := s.resolver.Resolve(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", query, err)
		}
		if res.Best == nil {
			return nil, fmt.Errorf("resolving %q: %w", query, domain.ErrNoMatch)
		}
		resolution = res
		ref = res.Best.Link
	}

	key, source, err := domain.Normalise(ref)
	if err != nil {
		return nil, err
	}
	logger.Debug("Canonical key: %s (%s)", key, source)

	existing, err := s.store.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}

	now := s.now()
	status := domain.StatusOf(existing, now, s.staleness)
	logger.Debug("Cache status: %s (force %t)", status, req.Force)

	if status == domain.CacheFresh && !req.Force {
		keywords, err := s.store.Keywords(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("reading keywords for %s: %w", key, err)
		}
		return &driving.IngestResult{
			Outcome:    driving.OutcomeCached,
			Record:     existing,
			Keywords:   keywords,
			Resolution: resolution,
		}, nil
	}

	if s.fetcher == nil || s.summariser == nil {
		return nil, fmt.Errorf("ingesting %s: no fetch pipeline configured: %w", key, domain.ErrUpstreamUnavailable)
	}

	// A fetch or summarise failure leaves the store untouched.
	content, err := s.fetcher.Fetch(ctx, key, source)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	summary, keywords, err := s.summariser.Summarise(ctx, content, source, req.Focus)
	if err != nil {
		return nil, fmt.Errorf("summarising %s: %w", key, err)
	}

	var embedding []float32
	if s.embedder != nil {
		embedding, err = s.embedder.Embed(ctx, content)
		if err != nil {
			// A record without a vector is valid.
			logger.Warn("embedding %s failed, storing without vector: %v", key, err)
			embedding = nil
		}
	}

	rec := &domain.Record{
		Key:            key,
		Source:         source,
		Summary:        summary,
		ContentPreview: domain.TruncatePreview(content),
		OwnerID:        req.OwnerID,
		FetchedAt:      now,
	}
	if _, err := s.upsert(ctx, rec, keywords, embedding); err != nil {
		return nil, err
	}

	stored, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("re-reading %s after write: %w", key, err)
	}

	outcome := driving.OutcomeIngested
	if existing != nil {
		outcome = driving.OutcomeRefreshed
	}
	return &driving.IngestResult{
		Outcome:    outcome,
		Record:     stored,
		Keywords:   keywords,
		Resolution: resolution,
	}, nil
}

// Status evaluates the cache state machine for a reference without
// any side effects.
func (s *IngestService) Status(ctx context.Context, reference string) (domain.CacheStatus, *domain.Record, error) {
	key, _, err := domain.Normalise(reference)
	if err != nil {
		return "", nil, err
	}

	rec, err := s.store.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CacheAbsent, nil, nil
		}
		return "", nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	return domain.StatusOf(rec, s.now(), s.staleness), rec, nil
}

// upsert writes the record and its derived indexes, retrying exactly
// once when a concurrent writer races the key uniqueness constraint.
// The second attempt observes the first writer's row and updates it.
func (s *IngestService) upsert(ctx context.Context, rec *domain.Record, keywords []string, embedding []float32) (string, error) {
	id, err := s.store.Upsert(ctx, rec, keywords, embedding)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrStoreConflict) {
		return "", fmt.Errorf("writing %s: %w", rec.Key, err)
	}

	logger.Warn("write conflict on %s, retrying as update", rec.Key)
	id, err = s.store.Upsert(ctx, rec, keywords, embedding)
	if err != nil {
		return "", fmt.Errorf("retried write for %s: %w", rec.Key, domain.ErrStoreConflict)
	}
	return id, nil
}

// artifact is the saved JSON layout written by the fetch pipeline.
type artifact struct {
	URL              string    `json:"url"`
	Type             string    `json:"type"`
	Timestamp        float64   `json:"timestamp"`
	Content          string    `json:"content"`
	Summary          string    `json:"summary"`
	Keywords         []string  `json:"keywords"`
	Embeddings       []float32 `json:"embeddings"`
	ObsidianMarkdown string    `json:"obsidian_markdown"`
}

// IndexArtifact upserts one saved artifact file into the store.
func (s *IngestService) IndexArtifact(ctx context.Context, path, ownerID string) (*domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", path, err)
	}
	if strings.TrimSpace(art.URL) == "" {
		return nil, fmt.Errorf("artifact %s has no url: %w", path, domain.ErrInvalidInput)
	}

	key, source, err := domain.Normalise(art.URL)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	// Wiki-link keywords, when present, supersede the plain list.
	keywords := art.Keywords
	if links := wikiLinkRe.FindAllStringSubmatch(art.ObsidianMarkdown, -1); len(links) > 0 {
		keywords = make([]string, 0, len(links))
		for _, m := range links {
			keywords = append(keywords, m[1])
		}
	}

	preview := art.Content
	if preview == "" {
		preview = art.Summary
	}

	fetchedAt := s.now()
	if art.Timestamp > 0 {
		fetchedAt = time.Unix(int64(art.Timestamp), 0).UTC()
	}

	rec := &domain.Record{
		Key:            key,
		Source:         source,
		Summary:        art.Summary,
		ContentPreview: domain.TruncatePreview(preview),
		OwnerID:        ownerID,
		FetchedAt:      fetchedAt,
	}
	if _, err := s.upsert(ctx, rec, keywords, art.Embeddings); err != nil {
		return nil, err
	}
	return s.store.GetByKey(ctx, key)
}

// IndexDir indexes every JSON artifact under dir. Individual file
// failures are logged and skipped.
func (s *IngestService) IndexDir(ctx context.Context, dir, ownerID string) (total, indexed int, err error) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		total++
		if _, err := s.IndexArtifact(ctx, path, ownerID); err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		indexed++
		return nil
	})
	if walkErr != nil {
		return total, indexed, fmt.Errorf("walking %s: %w", dir, walkErr)
	}
	return total, indexed, nil
}

// MigrateCSV imports the legacy flat-file index: one
// "type,timestamp,path" line per saved artifact. Missing files and
// malformed lines are skipped.
func (s *IngestService) MigrateCSV(ctx context.Context, csvPath string) (int, error) {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return 0, fmt.Errorf("reading index %s: %w", csvPath, err)
	}

	imported := 0
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) != 3 {
			continue
		}
		path := parts[2]
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Legacy rows predate ownership tracking.
		if _, err := s.IndexArtifact(ctx, path, ""); err != nil {
			logger.Warn("migrating %s: %v", path, err)
			continue
		}
		imported++
	}
	return imported, nil
}
