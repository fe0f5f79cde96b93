// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv looks up paper metadata by arXiv identifier through the
// arXiv export API. Requests are rate limited to the API's published
// policy and retried on throttling responses.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// DefaultBaseURL is the arXiv API query endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// ErrNoEntry is returned when the API has no usable entry for an identifier.
var ErrNoEntry = errors.New("no arXiv entry")

// Client fetches metadata from the arXiv API. It satisfies
// resolve.MetadataSource and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	timeout    time.Duration
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit sets the sustained request rate in requests per second.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithMaxRetries sets how often a throttled request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient returns a Client configured from cfg and opts.
func NewClient(cfg types.HTTPConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(types.DefaultRateLimit), 1),
		baseURL:    DefaultBaseURL,
		userAgent:  ua,
		timeout:    timeout,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns metadata for one arXiv identifier. The title is required;
// the other fields are filled when the entry carries them.
//
// Waiting for a rate limiter slot is bounded only by ctx. The configured
// timeout starts once the slot is granted and covers the request and its
// retries.
func (c *Client) Fetch(ctx context.Context, id string) (*types.PaperMetadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("id_list", id)
	q.Set("start", "0")
	q.Set("max_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return metadataFromFeed(feed, id)
}

// metadataFromFeed picks the entry for id from an API response.
func metadataFromFeed(feed *gofeed.Feed, id string) (*types.PaperMetadata, error) {
	for _, item := range feed.Items {
		if item == nil || strings.Contains(item.GUID, "/api/errors") {
			continue
		}
		if entryID := IDFromURL(item.GUID); entryID != "" && entryID != id {
			continue
		}
		title := collapse(item.Title)
		if title == "" {
			continue
		}

		meta := &types.PaperMetadata{
			ID:         id,
			Title:      title,
			Abstract:   collapse(item.Description),
			Authors:    []string{},
			Categories: []string{},
			DOI:        extensionValue(item, "doi"),
			JournalRef: collapse(extensionValue(item, "journal_ref")),
			Comment:    collapse(extensionValue(item, "comment")),
			Active:     true,
		}
		for _, a := range item.Authors {
			if a != nil && strings.TrimSpace(a.Name) != "" {
				meta.Authors = append(meta.Authors, strings.TrimSpace(a.Name))
			}
		}
		for _, cat := range item.Categories {
			if cat = strings.TrimSpace(cat); cat != "" {
				meta.Categories = append(meta.Categories, cat)
			}
		}
		if item.PublishedParsed != nil {
			meta.Published = item.PublishedParsed.UTC()
		}
		if item.UpdatedParsed != nil {
			meta.Updated = item.UpdatedParsed.UTC()
		}
		return meta, nil
	}
	return nil, fmt.Errorf("%w for %s", ErrNoEntry, id)
}

// extensionValue returns the first arxiv:<name> element value of item.
func extensionValue(item *gofeed.Item, name string) string {
	ns, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, e := range ns[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// IDFromURL pulls the identifier from an entry URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func IDFromURL(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]
	if v := strings.LastIndexByte(id, 'v'); v > 0 {
		if digits := id[v+1:]; digits != "" && strings.Trim(digits, "0123456789") == "" {
			id = id[:v]
		}
	}
	return id
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
