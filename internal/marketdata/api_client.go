package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIClient fetches odds snapshots from a REST feed.
type APIClient struct {
	http *resty.Client
}

// NewAPIClient creates an APIClient for the given base URL. The API key
// may be empty for feeds that don't require one.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond)
	if apiKey != "" {
		client.SetHeader("X-Api-Key", apiKey)
	}
	return &APIClient{http: client}
}

// Odds fetches current quotes for a sport, normalized to decimal.
// Quotes that fail normalization are dropped with the error of the first
// reported alongside the good ones.
func (c *APIClient) Odds(ctx context.Context, sport string) ([]Quote, error) {
	var wire []wireQuote

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sport", sport).
		SetResult(&wire).
		Get("/v1/odds")
	if err != nil {
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch odds: status %d", resp.StatusCode())
	}

	quotes := make([]Quote, 0, len(wire))
	var firstErr error
	for i := range wire {
		q, err := wire[i].normalize()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, firstErr
}
