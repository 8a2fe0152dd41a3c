package ingest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Keelando/surf-website-front-end-sub000/internal/httputil"
	"github.com/Keelando/surf-website-front-end-sub000/internal/metrics"
)

// ErrFeedUnavailable marks a feed document the publisher is not serving at
// all (404). Callers treat it as an empty-state, not a failure to retry.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Client fetches the pre-computed feed documents from the publisher.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.NewClient(),
	}
}

// FetchResult carries transport bookkeeping for the ingest run record.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
}

// Fetch retrieves one feed document with exponential-backoff retry. Rate
// limiting and server errors retry; anything else fails immediately.
func (c *Client) Fetch(feed string) ([]byte, *FetchResult, error) {
	url := c.baseURL + "/" + feed
	result := &FetchResult{}

	var body []byte
	start := time.Now()
	operation := func() error {
		resp, err := c.client.Get(url)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", feed, err))
		}
		defer resp.Body.Close()

		result.HTTPStatus = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("fetch %s: status %d", feed, resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", feed, ErrFeedUnavailable))
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", feed, resp.StatusCode, truncateBody(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	err := backoff.Retry(operation, bo)

	metrics.FeedFetchLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues(feed, "error").Inc()
		return nil, result, err
	}
	metrics.FeedFetchesTotal.WithLabelValues(feed, "ok").Inc()

	result.ResponseSize = len(body)
	return body, result, nil
}

// truncateBody trims an error body so log lines and ingest run records stay
// readable.
func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
