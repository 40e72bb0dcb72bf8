package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docvault/internal/core/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
 You Need</title>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2008.02217v3</id>
    <title>Hopfield Networks is All You Need</title>
  </entry>
</feed>`

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candidates, err := p.Search(context.Background(), `"attention is all you need"`, 12)
	require.NoError(t, err)

	assert.Equal(t, `ti:"attention is all you need"`, gotQuery)
	require.Len(t, candidates, 2)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", candidates[0].ProviderID)
	assert.Equal(t, "Attention Is All You Need", candidates[0].Title)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", candidates[0].Link)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	_, err := p.Search(context.Background(), "attention", 5)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestTitleQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"quoted phrase", `"deep learning"`, `ti:"deep learning"`},
		{"bare tokens", "attention is all", "ti:attention AND ti:is AND ti:all"},
		{"single token", "transformers", "ti:transformers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleQuery(tt.query))
		})
	}
}
