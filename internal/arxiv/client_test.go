// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const entryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title type="html">ArXiv Query: id_list=1706.03762</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2026-06-01T00:00:00-04:00</updated>
  <opensearch:totalResults>1</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:41:18Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on
      complex recurrent or convolutional neural networks.
    </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:comment>15 pages, 5 figures</arxiv:comment>
    <arxiv:journal_ref>NeurIPS 2017</arxiv:journal_ref>
    <arxiv:doi>10.48550/arXiv.1706.03762</arxiv:doi>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: id_list=9999.99999</title>
  <id>http://arxiv.org/api/query</id>
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_9999.99999</id>
    <title>Error</title>
    <summary>incorrect id format for 9999.99999</summary>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
</feed>`

func newTestClient(ts *httptest.Server, opts ...Option) *Client {
	base := []Option{WithBaseURL(ts.URL), WithHTTPClient(ts.Client()), WithRateLimit(0)}
	return NewClient(types.HTTPConfig{UserAgent: "test-agent/1.0"}, append(base, opts...)...)
}

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1706.03762", r.URL.Query().Get("id_list"))
		assert.Equal(t, "1", r.URL.Query().Get("max_results"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(entryFeed))
	}))
	defer ts.Close()

	meta, err := newTestClient(ts).Fetch(context.Background(), "1706.03762")
	require.NoError(t, err)

	assert.Equal(t, "1706.03762", meta.ID)
	assert.Equal(t, "Attention Is All You Need", meta.Title)
	assert.Equal(t, "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.", meta.Abstract)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, meta.Authors)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, meta.Categories)
	assert.Equal(t, time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC), meta.Published)
	assert.Equal(t, time.Date(2023, 8, 2, 0, 41, 18, 0, time.UTC), meta.Updated)
	assert.Equal(t, "10.48550/arXiv.1706.03762", meta.DOI)
	assert.Equal(t, "NeurIPS 2017", meta.JournalRef)
	assert.Equal(t, "15 pages, 5 figures", meta.Comment)
	assert.True(t, meta.Active)
}

func TestFetch_NoEntry(t *testing.T) {
	tests := []struct {
		name string
		body string
		id   string
	}{
		{"error entry", errorFeed, "9999.99999"},
		{"empty feed", emptyFeed, "1706.03762"},
		{"different identifier", entryFeed, "2001.08361"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := newTestClient(ts).Fetch(context.Background(), tt.id)
			assert.ErrorIs(t, err, ErrNoEntry)
		})
	}
}

func TestFetch_RetriesOnUnavailable(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(entryFeed))
	}))
	defer ts.Close()

	meta, err := newTestClient(ts).Fetch(context.Background(), "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", meta.Title)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), "1706.03762")
	assert.ErrorContains(t, err, "HTTP 400")
}

func TestFetch_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), "1706.03762")
	assert.ErrorContains(t, err, "parsing arXiv response")
}

func TestFetch_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(entryFeed))
	}))
	defer ts.Close()

	c := newTestClient(ts, WithRateLimit(20))
	start := time.Now()
	for range 3 {
		_, err := c.Fetch(context.Background(), "1706.03762")
		require.NoError(t, err)
	}
	// Burst of one at 20/s: the second and third requests wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestFetch_ContextCancelledWhileWaiting(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(entryFeed))
	}))
	defer ts.Close()

	c := newTestClient(ts, WithRateLimit(0.01))
	_, err := c.Fetch(context.Background(), "1706.03762")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, "1706.03762")
	assert.ErrorContains(t, err, "rate limiter")
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v2", "hep-th/9901001"},
		{"http://arxiv.org/api/errors#bad", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IDFromURL(tt.in))
		})
	}
}

func TestFetch_TimeoutStartsAfterLimiterSlot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(entryFeed))
	}))
	defer ts.Close()

	// Each later call queues 100ms for its slot, longer than the timeout.
	c := NewClient(types.HTTPConfig{Timeout: 50 * time.Millisecond},
		WithBaseURL(ts.URL), WithHTTPClient(ts.Client()), WithRateLimit(10))
	for range 3 {
		_, err := c.Fetch(context.Background(), "1706.03762")
		require.NoError(t, err)
	}
}

func TestFetch_TimeoutBoundsRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{Timeout: 50 * time.Millisecond},
		WithBaseURL(ts.URL), WithHTTPClient(ts.Client()), WithRateLimit(0))
	_, err := c.Fetch(context.Background(), "1706.03762")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
