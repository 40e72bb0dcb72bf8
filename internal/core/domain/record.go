package domain

import "time"

// DefaultStaleness is how long a cached record is served before a
// refresh is required. Callers may override it per lookup.
const DefaultStaleness = 7 * 24 * time.Hour

// PreviewLimit bounds ContentPreview to keep rows small.
const PreviewLimit = 500

// Record is the stored representation of one resolved, summarised
// external document. There is at most one Record per CanonicalKey.
type Record struct {
	// ID is assigned on first insert and stable across refreshes.
	ID string

	// Key is the canonical URL identity (unique).
	Key CanonicalKey

	// Source classifies which fetch adapter produced the content.
	Source SourceType

	// Summary is an opaque structured payload owned by the
	// summariser; the store never interprets it.
	Summary string

	// ContentPreview is the leading excerpt of the raw content,
	// at most PreviewLimit runes.
	ContentPreview string

	// OwnerID scopes visibility. Empty for records created before
	// ownership tracking existed; those are visible to everyone.
	OwnerID string

	// FetchedAt is the logical content timestamp used for staleness.
	// It may lag UpdatedAt.
	FetchedAt time.Time

	// CreatedAt is when the record was first inserted.
	CreatedAt time.Time

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// VisibleTo reports whether the record may be read by ownerID.
// Ownerless records are globally readable; owned records only by
// their owner. An empty ownerID means an unscoped caller.
func (r *Record) VisibleTo(ownerID string) bool {
	return r.OwnerID == "" || ownerID == "" || r.OwnerID == ownerID
}

// IsStaleAt reports whether content fetched at fetchedAt has aged past
// threshold as of now. The boundary is exclusive: a record exactly
// threshold old is still fresh.
func IsStaleAt(now, fetchedAt time.Time, threshold time.Duration) bool {
	return now.Sub(fetchedAt) > threshold
}

// IsStale is IsStaleAt against the wall clock.
func IsStale(fetchedAt time.Time, threshold time.Duration) bool {
	return IsStaleAt(time.Now(), fetchedAt, threshold)
}

// CacheStatus describes how a lookup found the cache. It is computed
// per lookup, never stored.
type CacheStatus string

const (
	// CacheAbsent means no record exists for the key.
	CacheAbsent CacheStatus = "absent"
	// CacheFresh means the record exists and is within threshold.
	CacheFresh CacheStatus = "fresh"
	// CacheStale means the record exists but must be regenerated.
	CacheStale CacheStatus = "stale"
)

// StatusOf evaluates the cache state machine for a lookup result.
func StatusOf(rec *Record, now time.Time, threshold time.Duration) CacheStatus {
	switch {
	case rec == nil:
		return CacheAbsent
	case IsStaleAt(now, rec.FetchedAt, threshold):
		return CacheStale
	default:
		return CacheFresh
	}
}

// TruncatePreview bounds s to PreviewLimit runes for storage as a
// content preview.
func TruncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewLimit {
		return s
	}
	return string(runes[:PreviewLimit])
}

// Stats summarises the store contents for one owner scope.
type Stats struct {
	// TotalRecords is the number of visible records.
	TotalRecords int

	// RecordsBySource counts records per source type.
	RecordsBySource map[SourceType]int

	// TotalKeywords counts keyword rows across visible records.
	TotalKeywords int

	// UniqueKeywords counts distinct keyword strings.
	UniqueKeywords int

	// TopKeywords maps the most frequent keywords to their counts.
	TopKeywords map[string]int

	// Recent holds the newest visible records.
	Recent []Record
}
