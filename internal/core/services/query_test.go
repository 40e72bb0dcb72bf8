package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docvault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docvault/internal/core/domain"
)

func seedOwned(t *testing.T, store *memory.RecordStore, key, owner string, keywords []string) string {
	t.Helper()
	id, err := store.Upsert(context.Background(), &domain.Record{
		Key:     domain.CanonicalKey(key),
		Source:  domain.SourceWebPage,
		OwnerID: owner,
	}, keywords, nil)
	require.NoError(t, err)
	return id
}

func TestSearchByKeywordOwnerScoping(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	seedOwned(t, store, "https://example.com/shared", "", []string{"golang"})
	seedOwned(t, store, "https://example.com/alice", "alice", []string{"golang"})
	seedOwned(t, store, "https://example.com/bob", "bob", []string{"golang"})

	forAlice, err := svc.SearchByKeyword(context.Background(), "golang", "alice")
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)
	for _, rec := range forAlice {
		assert.NotEqual(t, "bob", rec.OwnerID)
	}

	forBob, err := svc.SearchByKeyword(context.Background(), "golang", "bob")
	require.NoError(t, err)
	assert.Len(t, forBob, 2)
}

func TestSearchByKeywordSubstringMatch(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	seedOwned(t, store, "https://example.com/a", "", []string{"Machine Learning"})

	// Case-insensitive substring.
	hits, err := svc.SearchByKeyword(context.Background(), "learn", "")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = svc.SearchByKeyword(context.Background(), "quantum", "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRejectsEmptySubstring(t *testing.T) {
	svc := NewQueryService(memory.NewRecordStore())

	_, err := svc.SearchByKeyword(context.Background(), "  ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SearchByURL(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchByURL(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	seedOwned(t, store, "https://arxiv.org/abs/1706.03762", "", nil)
	seedOwned(t, store, "https://example.com/doc", "", nil)

	hits, err := svc.SearchByURL(context.Background(), "arxiv.org", "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.CanonicalKey("https://arxiv.org/abs/1706.03762"), hits[0].Key)
}

func TestRelatedRankedBySharedKeywords(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	target := seedOwned(t, store, "https://example.com/target", "", []string{"go", "caching", "sqlite"})
	closeID := seedOwned(t, store, "https://example.com/close", "", []string{"go", "caching", "sqlite", "extra"})
	farID := seedOwned(t, store, "https://example.com/far", "", []string{"go", "rust"})
	seedOwned(t, store, "https://example.com/unrelated", "", []string{"cooking"})

	related, err := svc.Related(context.Background(), target, 0, "")
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, closeID, related[0].ID)
	assert.Equal(t, 3, related[0].SharedKeywords)
	assert.Equal(t, farID, related[1].ID)
	assert.Equal(t, 1, related[1].SharedKeywords)
}

func TestRelatedUnknownRecord(t *testing.T) {
	svc := NewQueryService(memory.NewRecordStore())

	_, err := svc.Related(context.Background(), "no-such-id", 5, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecentNewestFirst(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })
	seedOwned(t, store, "https://example.com/old", "", nil)

	store.SetClock(func() time.Time { return now.Add(time.Hour) })
	seedOwned(t, store, "https://example.com/new", "", nil)

	recent, err := svc.Recent(context.Background(), 0, "")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, domain.CanonicalKey("https://example.com/new"), recent[0].Key)

	limited, err := svc.Recent(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListBySource(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	seedOwned(t, store, "https://arxiv.org/abs/1706.03762", "", nil)
	// seedOwned always writes webpage records, so switch the source.
	_, err := store.Upsert(context.Background(), &domain.Record{
		Key:    "https://arxiv.org/abs/2401.12345",
		Source: domain.SourceArxiv,
	}, nil, nil)
	require.NoError(t, err)

	papers, err := svc.ListBySource(context.Background(), domain.SourceArxiv, "")
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, domain.CanonicalKey("https://arxiv.org/abs/2401.12345"), papers[0].Key)

	_, err = svc.ListBySource(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetHonoursOwnerRule(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	id := seedOwned(t, store, "https://example.com/private", "alice", []string{"secret"})

	rec, keywords, err := svc.Get(context.Background(), id, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.CanonicalKey("https://example.com/private"), rec.Key)
	assert.Equal(t, []string{"secret"}, keywords)

	_, _, err = svc.Get(context.Background(), id, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	store := memory.NewRecordStore()
	svc := NewQueryService(store)

	seedOwned(t, store, "https://example.com/a", "", []string{"go", "caching"})
	seedOwned(t, store, "https://example.com/b", "", []string{"go"})
	seedOwned(t, store, "https://example.com/hidden", "alice", []string{"go"})

	stats, err := svc.Stats(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 3, stats.TotalKeywords)
	assert.Equal(t, 2, stats.UniqueKeywords)
	assert.Equal(t, 2, stats.TopKeywords["go"])
	assert.Equal(t, 2, stats.RecordsBySource[domain.SourceWebPage])
}
