package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
	"github.com/custodia-labs/docvault/internal/core/ports/driving"
	"github.com/custodia-labs/docvault/internal/logger"
)

// Ensure ResolverService implements the interface.
var _ driving.ResolverService = (*ResolverService)(nil)

// conjunctionTokens caps how many leading tokens the loosest query
// variant uses.
const conjunctionTokens = 8

// ResolverConfig holds the tunable parts of fuzzy resolution. The
// defaults match long-observed behaviour; none of the numbers is
// load-bearing.
type ResolverConfig struct {
	// JaccardWeight scales the token-set similarity component.
	JaccardWeight float64

	// LCSWeight scales the token-order similarity component.
	LCSWeight float64

	// TrigramBonus is added when the first three tokens of query and
	// candidate agree in order.
	TrigramBonus float64

	// ConfidenceThreshold marks resolutions below it low-confidence.
	ConfidenceThreshold float64

	// PageSize bounds results requested per query variant.
	PageSize int

	// MaxRunnersUp bounds the runners-up returned with the best.
	MaxRunnersUp int
}

// DefaultResolverConfig returns the standard tuning.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		JaccardWeight:       0.6,
		LCSWeight:           0.4,
		TrigramBonus:        0.05,
		ConfidenceThreshold: 0.55,
		PageSize:            12,
		MaxRunnersUp:        3,
	}
}

// ResolverService resolves an imprecisely typed title to a single best
// candidate via staged provider searches and composite scoring.
type ResolverService struct {
	provider driven.SearchProvider
	cfg      ResolverConfig
}

// NewResolverService creates a resolver on top of a search provider.
func NewResolverService(provider driven.SearchProvider, cfg ResolverConfig) *ResolverService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultResolverConfig().PageSize
	}
	if cfg.MaxRunnersUp <= 0 {
		cfg.MaxRunnersUp = DefaultResolverConfig().MaxRunnersUp
	}
	return &ResolverService{provider: provider, cfg: cfg}
}

// Resolve runs the three query variants from most to least strict,
// deduplicates candidates by provider id, scores them against the
// original query and returns the ranked outcome. A provider failure on
// one variant degrades recall but never aborts the others.
func (s *ResolverService) Resolve(ctx context.Context, query string) (*domain.Resolution, error) {
	logger.Section("Fuzzy Resolution")
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	logger.Debug("Query: %q", query)

	variants := s.queryVariants(query)

	var (
		candidates []domain.Candidate
		seen       = make(map[string]bool)
		failures   []error
	)
	for i, variant := range variants {
		results, err := s.provider.Search(ctx, variant, s.cfg.PageSize)
		if err != nil {
			logger.Warn("variant %d failed: %v", i+1, err)
			failures = append(failures, err)
			continue
		}
		logger.Debug("Variant %d (%q): %d results", i+1, variant, len(results))
		for _, c := range results {
			// First sighting wins; later variants never overwrite.
			if seen[c.ProviderID] {
				continue
			}
			seen[c.ProviderID] = true
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		if len(failures) == len(variants) {
			return nil, fmt.Errorf("searching for %q: %v: %w", query, failures[0], domain.ErrUpstreamUnavailable)
		}
		logger.Info("No candidates for %q", query)
		return &domain.Resolution{}, nil
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sc := s.score(query, c.Title)
		if sc <= 0 {
			continue
		}
		scored = append(scored, domain.ScoredCandidate{Candidate: c, Score: sc})
	}
	if len(scored) == 0 {
		return &domain.Resolution{}, nil
	}

	// Stable sort keeps provider order as the tiebreak.
	stableSortByScore(scored)

	res := &domain.Resolution{Best: &scored[0]}
	if rest := scored[1:]; len(rest) > 0 {
		if len(rest) > s.cfg.MaxRunnersUp {
			rest = rest[:s.cfg.MaxRunnersUp]
		}
		res.RunnersUp = rest
	}
	res.LowConfidence = res.Best.Score < s.cfg.ConfidenceThreshold

	logger.Info("Best: %q (score %.3f, low confidence %t)", res.Best.Title, res.Best.Score, res.LowConfidence)
	return res, nil
}

// queryVariants builds the staged searches, most to least strict: the
// raw title as an exact phrase, the normalised title as a phrase, and
// a conjunction of the first eight normalised tokens.
func (s *ResolverService) queryVariants(query string) []string {
	variants := []string{fmt.Sprintf("%q", query)}

	norm := normaliseTitle(query)
	if norm != query {
		variants = append(variants, fmt.Sprintf("%q", norm))
	}

	toks := strings.Fields(norm)
	if len(toks) > conjunctionTokens {
		toks = toks[:conjunctionTokens]
	}
	variants = append(variants, strings.Join(toks, " "))

	return variants
}

// score computes the composite similarity of a candidate title against
// the query. An exact match of the normalised strings short-circuits
// to 1.0; every other path is clamped strictly below it.
func (s *ResolverService) score(query, title string) float64 {
	nq := normaliseTitle(query)
	nt := normaliseTitle(title)
	if nq == nt {
		return 1.0
	}

	qt := strings.Fields(nq)
	tt := strings.Fields(nt)
	if len(qt) == 0 || len(tt) == 0 {
		return 0
	}

	score := s.cfg.JaccardWeight*jaccard(qt, tt) + s.cfg.LCSWeight*lcsRatio(qt, tt)

	if len(qt) >= 3 && len(tt) >= 3 &&
		qt[0] == tt[0] && qt[1] == tt[1] && qt[2] == tt[2] {
		score += s.cfg.TrigramBonus
	}

	if score >= 1.0 {
		score = 0.99
	}
	return score
}
