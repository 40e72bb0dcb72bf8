// Package arxiv implements the SearchProvider port against the arXiv
// Atom API. Requests are rate limited to one every three seconds as
// the API's terms of use ask; callers bound each call with their own
// context deadline.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docvault/internal/core/domain"
	"github.com/custodia-labs/docvault/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SearchProvider = (*Provider)(nil)

// defaultBaseURL is the public arXiv API endpoint.
const defaultBaseURL = "https://export.arxiv.org/api/query"

// Provider searches arXiv paper titles.
type Provider struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint. Useful for testing.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// NewProvider creates an arXiv search provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// atomFeed is the subset of the Atom response the provider reads.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
}

// Search runs one title query and returns candidates in relevance
// order. Failures are wrapped as domain.ErrUpstreamUnavailable so the
// resolver can isolate them per variant.
func (p *Provider) Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", titleQuery(query))
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building arxiv request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying arxiv: status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding arxiv response: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	candidates := make([]domain.Candidate, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		candidates = append(candidates, domain.Candidate{
			ProviderID: e.ID,
			Title:      collapseWhitespace(e.Title),
			Link:       e.ID,
		})
	}
	return candidates, nil
}

// titleQuery maps a resolver query variant to arXiv's query syntax:
// quoted variants become a phrase match on the title field, bare
// variants a conjunction of title terms.
func titleQuery(query string) string {
	q := strings.TrimSpace(query)
	if len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		return "ti:" + q
	}

	tokens := strings.Fields(q)
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = "ti:" + t
	}
	return strings.Join(parts, " AND ")
}

// collapseWhitespace flattens the newlines and indentation arXiv puts
// inside long titles.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
