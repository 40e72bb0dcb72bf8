// Package services implements the core use cases: fuzzy resolution of
// free-text queries, cache-aware ingestion, and read-only queries.
// Services depend only on domain types and ports; all infrastructure
// arrives through constructor injection.
package services
