package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference indicates a reference that cannot be
	// normalised even heuristically (in practice: empty input).
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoMatch indicates fuzzy resolution produced no candidate
	// above zero relevance.
	ErrNoMatch = errors.New("no matching document")

	// ErrUpstreamUnavailable indicates the search provider or a
	// content fetcher failed. It is surfaced to the caller with
	// context and never retried inside the core.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrStoreConflict indicates a concurrent writer raced the key
	// uniqueness constraint and the single local retry also failed.
	ErrStoreConflict = errors.New("store conflict")

	// ErrStoreIntegrity indicates the record table and its derived
	// indexes disagree. The atomic-replace contract makes this
	// unreachable; it fails loudly if ever observed.
	ErrStoreIntegrity = errors.New("store integrity violation")
)
