package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docvault/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// recordColumns is the canonical column list shared by every record
// query so scans stay in one place.
const recordColumns = "id, key, source, summary, content_preview, owner_id, fetched_at, created_at, updated_at"

// Store is the SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the store at the specified data
// directory. If dataDir is empty, defaults to ~/.docvault/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docvault", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "records.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetByKey looks a record up by its canonical key.
func (s *Store) GetByKey(ctx context.Context, key domain.CanonicalKey) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM records WHERE key = ?
	`, string(key))

	return scanRecord(row)
}

// GetByID retrieves a record by id. Owned records are only visible to
// their owner; ownerless records to everyone.
func (s *Store) GetByID(ctx context.Context, id, ownerID string) (*domain.Record, error) {
	var row *sql.Row
	if ownerID == "" {
		row = s.db.QueryRowContext(ctx, `
			SELECT `+recordColumns+`
			FROM records WHERE id = ?
		`, id)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT `+recordColumns+`
			FROM records WHERE id = ? AND (owner_id IS NULL OR owner_id = ?)
		`, id, ownerID)
	}

	return scanRecord(row)
}

// Upsert inserts a record for rec.Key or updates the existing row in
// place, then replaces the keyword set and the embedding. All writes
// share one transaction; partial application is never observable.
func (s *Store) Upsert(ctx context.Context, rec *domain.Record, keywords []string, embedding []float32) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	fetchedAt := rec.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	// The insert path assigns a fresh id; on conflict the existing
	// row keeps its id and created_at.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, key, source, summary, content_preview, owner_id, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			source = excluded.source,
			summary = excluded.summary,
			content_preview = excluded.content_preview,
			owner_id = excluded.owner_id,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`, uuid.NewString(), string(rec.Key), string(rec.Source), rec.Summary, rec.ContentPreview,
		nullString(rec.OwnerID), fetchedAt, now, now)
	if err != nil {
		if isConstraintErr(err) {
			return "", fmt.Errorf("writing record %s: %w", rec.Key, domain.ErrStoreConflict)
		}
		return "", fmt.Errorf("writing record: %w", err)
	}

	var id string
	if err := tx.QueryRowContext(ctx, "SELECT id FROM records WHERE key = ?", string(rec.Key)).Scan(&id); err != nil {
		return "", fmt.Errorf("reading record id: %w", err)
	}

	// Replace, don't merge: the previous keyword generation is
	// dropped entirely.
	if _, err := tx.ExecContext(ctx, "DELETE FROM keywords WHERE record_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing keywords: %w", err)
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO keywords (record_id, keyword)
			VALUES (?, ?)
		`, id, kw); err != nil {
			return "", fmt.Errorf("inserting keyword: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE record_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing embedding: %w", err)
	}
	if len(embedding) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (record_id, vector)
			VALUES (?, ?)
		`, id, float32SliceToBytes(embedding)); err != nil {
			return "", fmt.Errorf("inserting embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isConstraintErr(err) {
			return "", fmt.Errorf("committing record %s: %w", rec.Key, domain.ErrStoreConflict)
		}
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// Keywords returns the current keyword set for a record.
func (s *Store) Keywords(ctx context.Context, recordID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword FROM keywords WHERE record_id = ? ORDER BY keyword
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	var keywords []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keywords: %w", err)
	}

	return keywords, nil
}

// Embedding returns the stored vector, nil when none exists.
func (s *Store) Embedding(ctx context.Context, recordID string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT vector FROM embeddings WHERE record_id = ?
	`, recordID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No embedding is valid
		}
		return nil, fmt.Errorf("querying embedding: %w", err)
	}
	return bytesToFloat32Slice(blob), nil
}

// SearchByKeyword returns records whose keyword set contains the
// substring, newest first. SQLite LIKE is case-insensitive for ASCII.
func (s *Store) SearchByKeyword(ctx context.Context, substring, ownerID string) ([]domain.Record, error) {
	pattern := "%" + substring + "%"

	var rows *sql.Rows
	var err error
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT DISTINCT r.id, r.key, r.source, r.summary, r.content_preview, r.owner_id, r.fetched_at, r.created_at, r.updated_at
			FROM records r
			JOIN keywords k ON r.id = k.record_id
			WHERE k.keyword LIKE ?
			ORDER BY r.updated_at DESC
		`, pattern)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT DISTINCT r.id, r.key, r.source, r.summary, r.content_preview, r.owner_id, r.fetched_at, r.created_at, r.updated_at
			FROM records r
			JOIN keywords k ON r.id = k.record_id
			WHERE k.keyword LIKE ? AND (r.owner_id IS NULL OR r.owner_id = ?)
			ORDER BY r.updated_at DESC
		`, pattern, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying by keyword: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SearchByURL returns records whose canonical key contains the
// substring, newest first.
func (s *Store) SearchByURL(ctx context.Context, substring, ownerID string) ([]domain.Record, error) {
	pattern := "%" + substring + "%"

	var rows *sql.Rows
	var err error
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			WHERE key LIKE ?
			ORDER BY updated_at DESC
		`, pattern)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			WHERE key LIKE ? AND (owner_id IS NULL OR owner_id = ?)
			ORDER BY updated_at DESC
		`, pattern, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying by url: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Related ranks other records by count of keywords shared with the
// target, descending, ties broken by recency.
func (s *Store) Related(ctx context.Context, recordID string, limit int, ownerID string) ([]driven.RelatedRecord, error) {
	if _, err := s.GetByID(ctx, recordID, ""); err != nil {
		return nil, err
	}

	ownerFilter := ""
	args := []any{recordID, recordID}
	if ownerID != "" {
		ownerFilter = "AND (r.owner_id IS NULL OR r.owner_id = ?)"
		args = append(args, ownerID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.key, r.source, r.summary, r.content_preview, r.owner_id, r.fetched_at, r.created_at, r.updated_at,
		       COUNT(k2.keyword) AS shared
		FROM records r
		JOIN keywords k1 ON r.id = k1.record_id
		JOIN keywords k2 ON k1.keyword = k2.keyword
		WHERE k2.record_id = ? AND r.id != ? `+ownerFilter+`
		GROUP BY r.id
		ORDER BY shared DESC, r.updated_at DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying related: %w", err)
	}
	defer rows.Close()

	var result []driven.RelatedRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.Record
		var ownerID sql.NullString
		var shared int
		if err := rows.Scan(&rec.ID, &rec.Key, &rec.Source, &rec.Summary, &rec.ContentPreview,
			&ownerID, &rec.FetchedAt, &rec.CreatedAt, &rec.UpdatedAt, &shared); err != nil {
			return nil, fmt.Errorf("scanning related record: %w", err)
		}
		rec.OwnerID = ownerID.String
		result = append(result, driven.RelatedRecord{Record: rec, SharedKeywords: shared})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related records: %w", err)
	}

	return result, nil
}

// Recent returns the newest records, owner-scoped.
func (s *Store) Recent(ctx context.Context, limit int, ownerID string) ([]domain.Record, error) {
	var rows *sql.Rows
	var err error
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			ORDER BY updated_at DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			WHERE owner_id IS NULL OR owner_id = ?
			ORDER BY updated_at DESC
			LIMIT ?
		`, ownerID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying recent: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListBySource returns records of one source type, newest first.
func (s *Store) ListBySource(ctx context.Context, source domain.SourceType, ownerID string) ([]domain.Record, error) {
	var rows *sql.Rows
	var err error
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			WHERE source = ?
			ORDER BY updated_at DESC
		`, string(source))
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+recordColumns+`
			FROM records
			WHERE source = ? AND (owner_id IS NULL OR owner_id = ?)
			ORDER BY updated_at DESC
		`, string(source), ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying by source: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Stats summarises the visible store contents.
func (s *Store) Stats(ctx context.Context, ownerID string) (*domain.Stats, error) {
	stats := &domain.Stats{
		RecordsBySource: make(map[domain.SourceType]int),
		TopKeywords:     make(map[string]int),
	}

	visible := "1=1"
	var args []any
	if ownerID != "" {
		visible = "(owner_id IS NULL OR owner_id = ?)"
		args = []any{ownerID}
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE "+visible, args...).Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, COUNT(*) FROM records WHERE "+visible+" GROUP BY source", args...)
	if err != nil {
		return nil, fmt.Errorf("counting by source: %w", err)
	}
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		stats.RecordsBySource[domain.SourceType(source)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source counts: %w", err)
	}

	rVisible := strings.ReplaceAll(visible, "owner_id", "r.owner_id")

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM keywords k JOIN records r ON k.record_id = r.id WHERE `+rVisible,
		args...).Scan(&stats.TotalKeywords); err != nil {
		return nil, fmt.Errorf("counting keywords: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT k.keyword) FROM keywords k JOIN records r ON k.record_id = r.id WHERE `+rVisible,
		args...).Scan(&stats.UniqueKeywords); err != nil {
		return nil, fmt.Errorf("counting unique keywords: %w", err)
	}

	topRows, err := s.db.QueryContext(ctx, `
		SELECT k.keyword, COUNT(*) AS count
		FROM keywords k JOIN records r ON k.record_id = r.id
		WHERE `+rVisible+`
		GROUP BY k.keyword
		ORDER BY count DESC
		LIMIT 10
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top keywords: %w", err)
	}
	for topRows.Next() {
		var kw string
		var count int
		if err := topRows.Scan(&kw, &count); err != nil {
			topRows.Close()
			return nil, fmt.Errorf("scanning top keyword: %w", err)
		}
		stats.TopKeywords[kw] = count
	}
	topRows.Close()
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top keywords: %w", err)
	}

	recent, err := s.Recent(ctx, 5, ownerID)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent

	return stats, nil
}

// ==================== Helper Functions ====================

// nullString converts an empty string to a SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isConstraintErr reports whether err is a uniqueness violation from
// the driver.
func isConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanRecord scans a single record row.
func scanRecord(row *sql.Row) (*domain.Record, error) {
	var rec domain.Record
	var ownerID sql.NullString

	if err := row.Scan(&rec.ID, &rec.Key, &rec.Source, &rec.Summary, &rec.ContentPreview,
		&ownerID, &rec.FetchedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.OwnerID = ownerID.String
	return &rec, nil
}

// scanRecords scans multiple record rows.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.Record
		var ownerID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Key, &rec.Source, &rec.Summary, &rec.ContentPreview,
			&ownerID, &rec.FetchedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.OwnerID = ownerID.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}
