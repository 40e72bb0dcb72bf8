package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docvault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
	"github.com/custodia-labs/docvault/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockFetcher struct {
	content string
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(_ context.Context, _ domain.CanonicalKey, _ domain.SourceType) (string, error) {
	m.calls++
	return m.content, m.err
}

type mockSummariser struct {
	summary  string
	keywords []string
	err      error
}

func (m *mockSummariser) Summarise(_ context.Context, _ string, _ domain.SourceType, _ string) (string, []string, error) {
	return m.summary, m.keywords, m.err
}

type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return m.vector, m.err
}

type mockResolver struct {
	res *domain.Resolution
	err error
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (*domain.Resolution, error) {
	return m.res, m.err
}

// conflictingStore fails the first n Upserts with a conflict, then
// delegates to the wrapped store.
type conflictingStore struct {
	*memory.RecordStore
	failures int
	calls    int
}

func (s *conflictingStore) Upsert(ctx context.Context, rec *domain.Record, keywords []string, embedding []float32) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", domain.ErrStoreConflict
	}
	return s.RecordStore.Upsert(ctx, rec, keywords, embedding)
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestIngest(store *memory.RecordStore, fetcher *mockFetcher, summariser *mockSummariser, embedder *mockEmbedder) *IngestService {
	store.SetClock(func() time.Time { return fixedNow })

	// Typed nils must stay nil interfaces or the service's optional
	// collaborator checks misfire.
	var (
		f driven.ContentFetcher
		m driven.Summariser
		e driven.Embedder
	)
	if fetcher != nil {
		f = fetcher
	}
	if summariser != nil {
		m = summariser
	}
	if embedder != nil {
		e = embedder
	}

	svc := NewIngestService(store, nil, f, m, e, 0)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seedRecord(t *testing.T, store *memory.RecordStore, key string, fetchedAt time.Time, keywords []string) string {
	t.Helper()
	id, err := store.Upsert(context.Background(), &domain.Record{
		Key:       domain.CanonicalKey(key),
		Source:    domain.SourceWebPage,
		Summary:   "old summary",
		FetchedAt: fetchedAt,
	}, keywords, nil)
	require.NoError(t, err)
	return id
}

// --- Tests ---

func TestIngestAbsentRecord(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: "page body"}
	summariser := &mockSummariser{summary: "a summary", keywords: []string{"go", "caching"}}
	svc := newTestIngest(store, fetcher, summariser, nil)

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "example.com/doc"})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeIngested, result.Outcome)
	require.NotNil(t, result.Record)
	assert.Equal(t, domain.CanonicalKey("https://example.com/doc"), result.Record.Key)
	assert.Equal(t, "a summary", result.Record.Summary)
	assert.Equal(t, []string{"go", "caching"}, result.Keywords)
	assert.Equal(t, 1, fetcher.calls)
}

func TestIngestFreshServedFromCache(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: "new body"}
	summariser := &mockSummariser{summary: "new summary"}
	svc := newTestIngest(store, fetcher, summariser, nil)

	seedRecord(t, store, "https://example.com/doc", fixedNow.Add(-time.Hour), []string{"stored"})

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeCached, result.Outcome)
	assert.Equal(t, "old summary", result.Record.Summary)
	assert.Equal(t, []string{"stored"}, result.Keywords)
	assert.Zero(t, fetcher.calls)
}

func TestIngestStaleRefreshes(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: "new body"}
	summariser := &mockSummariser{summary: "new summary", keywords: []string{"fresh"}}
	svc := newTestIngest(store, fetcher, summariser, nil)

	id := seedRecord(t, store, "https://example.com/doc", fixedNow.Add(-8*24*time.Hour), []string{"stale"})

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.NoError(t, err)

	assert.Equal(t, driving.OutcomeRefreshed, result.Outcome)
	assert.Equal(t, id, result.Record.ID, "refresh keeps the record id")
	assert.Equal(t, "new summary", result.Record.Summary)
	assert.Equal(t, fixedNow, result.Record.FetchedAt)

	// Keyword index replaced, not merged.
	keywords, err := store.Keywords(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, keywords)
}

func TestIngestForceRefreshesFreshRecord(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: "new body"}
	summariser := &mockSummariser{summary: "new summary"}
	svc := newTestIngest(store, fetcher, summariser, nil)

	seedRecord(t, store, "https://example.com/doc", fixedNow.Add(-time.Hour), nil)

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{
		Reference: "https://example.com/doc",
		Force:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, driving.OutcomeRefreshed, result.Outcome)
	assert.Equal(t, 1, fetcher.calls)
}

func TestIngestFetchFailureLeavesStoreUntouched(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{err: errors.New("connection refused")}
	svc := newTestIngest(store, fetcher, &mockSummariser{}, nil)

	_, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.Error(t, err)

	_, err = store.GetByKey(context.Background(), "https://example.com/doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestEmbedFailureStoresWithoutVector(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: "page body"}
	summariser := &mockSummariser{summary: "a summary"}
	embedder := &mockEmbedder{err: errors.New("model offline")}
	svc := newTestIngest(store, fetcher, summariser, embedder)

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.NoError(t, err)

	vec, err := store.Embedding(context.Background(), result.Record.ID)
	require.NoError(t, err)
	assert.Empty(t, vec)
}

func TestIngestTruncatesPreview(t *testing.T) {
	store := memory.NewRecordStore()
	fetcher := &mockFetcher{content: strings.Repeat("é", 600)}
	summariser := &mockSummariser{summary: "a summary"}
	svc := newTestIngest(store, fetcher, summariser, nil)

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.NoError(t, err)
	assert.Equal(t, domain.PreviewLimit, len([]rune(result.Record.ContentPreview)))
}

func TestIngestResolvesFreeTextQuery(t *testing.T) {
	store := memory.NewRecordStore()
	store.SetClock(func() time.Time { return fixedNow })
	resolution := &domain.Resolution{
		Best: &domain.ScoredCandidate{
			Candidate: domain.Candidate{
				ProviderID: "http://arxiv.org/abs/1706.03762v7",
				Title:      "Attention Is All You Need",
				Link:       "http://arxiv.org/abs/1706.03762v7",
			},
			Score: 1.0,
		},
	}
	fetcher := &mockFetcher{content: "paper text"}
	summariser := &mockSummariser{summary: "transformers"}
	svc := NewIngestService(store, &mockResolver{res: resolution}, fetcher, summariser, nil, 0)
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Query: "attention is all you need"})
	require.NoError(t, err)

	assert.Equal(t, domain.CanonicalKey("https://arxiv.org/abs/1706.03762"), result.Record.Key)
	assert.Equal(t, domain.SourceArxiv, result.Record.Source)
	assert.Same(t, resolution, result.Resolution)
}

func TestIngestQueryWithoutMatch(t *testing.T) {
	svc := NewIngestService(memory.NewRecordStore(), &mockResolver{res: &domain.Resolution{}}, &mockFetcher{}, &mockSummariser{}, nil, 0)

	_, err := svc.Ingest(context.Background(), driving.IngestRequest{Query: "no such paper"})
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestIngestEmptyRequest(t *testing.T) {
	svc := NewIngestService(memory.NewRecordStore(), nil, &mockFetcher{}, &mockSummariser{}, nil, 0)

	_, err := svc.Ingest(context.Background(), driving.IngestRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestRetriesOnceOnConflict(t *testing.T) {
	inner := memory.NewRecordStore()
	inner.SetClock(func() time.Time { return fixedNow })
	store := &conflictingStore{RecordStore: inner, failures: 1}
	fetcher := &mockFetcher{content: "page body"}
	summariser := &mockSummariser{summary: "a summary"}
	svc := NewIngestService(store, nil, fetcher, summariser, nil, 0)
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, driving.OutcomeIngested, result.Outcome)
}

func TestIngestGivesUpAfterSecondConflict(t *testing.T) {
	inner := memory.NewRecordStore()
	store := &conflictingStore{RecordStore: inner, failures: 2}
	svc := NewIngestService(store, nil, &mockFetcher{content: "x"}, &mockSummariser{summary: "y"}, nil, 0)

	_, err := svc.Ingest(context.Background(), driving.IngestRequest{Reference: "https://example.com/doc"})
	assert.ErrorIs(t, err, domain.ErrStoreConflict)
	assert.Equal(t, 2, store.calls)
}

func TestStatus(t *testing.T) {
	store := memory.NewRecordStore()
	svc := newTestIngest(store, &mockFetcher{}, &mockSummariser{}, nil)

	status, rec, err := svc.Status(context.Background(), "https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheAbsent, status)
	assert.Nil(t, rec)

	seedRecord(t, store, "https://example.com/doc", fixedNow.Add(-time.Hour), nil)
	status, rec, err = svc.Status(context.Background(), "https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheFresh, status)
	require.NotNil(t, rec)

	seedRecord(t, store, "https://example.com/old", fixedNow.Add(-30*24*time.Hour), nil)
	status, _, err = svc.Status(context.Background(), "https://example.com/old")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheStale, status)
}

func TestIndexArtifactWikiLinksSupersedeKeywords(t *testing.T) {
	store := memory.NewRecordStore()
	svc := newTestIngest(store, nil, nil, nil)

	path := filepath.Join(t.TempDir(), "artifact.json")
	payload := `{
		"url": "https://arxiv.org/abs/2401.12345",
		"type": "arxiv",
		"timestamp": 1717200000,
		"content": "full text",
		"summary": "paper summary",
		"keywords": ["plain-a", "plain-b"],
		"obsidian_markdown": "Tags: [[transformers]] [[attention]]"
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	rec, err := svc.IndexArtifact(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CanonicalKey("https://arxiv.org/abs/2401.12345"), rec.Key)
	assert.Equal(t, time.Unix(1717200000, 0).UTC(), rec.FetchedAt)

	keywords, err := store.Keywords(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"transformers", "attention"}, keywords)
}

func TestIndexArtifactFallsBackToPlainKeywords(t *testing.T) {
	store := memory.NewRecordStore()
	svc := newTestIngest(store, nil, nil, nil)

	path := filepath.Join(t.TempDir(), "artifact.json")
	payload := `{"url": "https://example.com/doc", "type": "webpage", "keywords": ["only", "these"], "summary": "s"}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	rec, err := svc.IndexArtifact(context.Background(), path, "")
	require.NoError(t, err)

	keywords, err := store.Keywords(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"only", "these"}, keywords)
	// Without content the summary stands in as the preview.
	assert.Equal(t, "s", rec.ContentPreview)
}

func TestIndexDirSkipsBrokenFiles(t *testing.T) {
	store := memory.NewRecordStore()
	svc := newTestIngest(store, nil, nil, nil)

	dir := t.TempDir()
	good := `{"url": "https://example.com/a", "summary": "s"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), []byte(good), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	total, indexed, err := svc.IndexDir(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, indexed)
}

func TestMigrateCSVSkipsMissingFiles(t *testing.T) {
	store := memory.NewRecordStore()
	svc := newTestIngest(store, nil, nil, nil)

	dir := t.TempDir()
	artifact := filepath.Join(dir, "saved.json")
	require.NoError(t, os.WriteFile(artifact, []byte(`{"url": "https://example.com/a", "summary": "s"}`), 0600))

	index := filepath.Join(dir, "index.csv")
	lines := fmt.Sprintf("webpage,1717200000,%s\nwebpage,1717200000,%s\nmalformed line\n",
		artifact, filepath.Join(dir, "missing.json"))
	require.NoError(t, os.WriteFile(index, []byte(lines), 0600))

	imported, err := svc.MigrateCSV(context.Background(), index)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	rec, err := store.GetByKey(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	// Legacy rows carry no owner, so the record is globally visible.
	assert.True(t, rec.VisibleTo("anyone"))
}
