package domain

// Candidate is one search-provider hit considered during fuzzy
// resolution of a free-text title.
type Candidate struct {
	// ProviderID is the provider's native identifier, used for
	// deduplication across query variants.
	ProviderID string

	// Title is the candidate's title as reported by the provider.
	Title string

	// Link resolves to a canonical reference via Normalise.
	Link string
}

// ScoredCandidate pairs a candidate with its composite similarity
// score against the original query.
type ScoredCandidate struct {
	Candidate

	// Score blends token-set Jaccard similarity with a normalised
	// longest-common-subsequence ratio. Only an exact normalised
	// match reaches 1.0.
	Score float64
}

// Resolution is the outcome of resolving a free-text query. A nil
// Best means no candidate was found; that is a result, not an error.
type Resolution struct {
	// Best is the highest-scoring candidate, nil when nothing
	// matched.
	Best *ScoredCandidate

	// RunnersUp holds up to three next-best candidates.
	RunnersUp []ScoredCandidate

	// LowConfidence is set when Best scored below the configured
	// confidence threshold. The resolution still succeeded.
	LowConfidence bool
}
