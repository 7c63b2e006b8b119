package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultMaxRetries caps retry attempts per page fetch when unconfigured.
const defaultMaxRetries = 5

// orderFields is the projection requested from the orders endpoint. Keeping
// the field list explicit bounds response size to what the mirror stores.
var orderFields = strings.Join([]string{
	"id", "name", "order_number", "email", "phone", "currency",
	"financial_status", "fulfillment_status",
	"total_price", "subtotal_price", "total_tax",
	"note", "note_attributes", "shipping_address", "billing_address",
	"customer", "shipping_lines", "fulfillments", "line_items",
	"created_at", "updated_at", "cancelled_at", "cancel_reason",
}, ",")

// Client fetches order pages from the Shopify Admin API. It implements
// orders.OrderSource, handling rate limits and transient failures with
// capped exponential backoff so the orchestrator only sees exhausted
// retries.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Shopify Admin API client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

var _ orders.OrderSource = (*Client)(nil)

// FetchPage requests one page of orders. The first page of a run filters by
// the window's updated_at lower bound; subsequent pages follow the cursor,
// which already encodes the filter.
func (c *Client) FetchPage(ctx context.Context, query orders.PageQuery) (*orders.OrderPage, error) {
	reqURL := c.buildURL(query)

	var page *orders.OrderPage
	operation := func() error {
		var err error
		page, err = c.fetchOnce(ctx, reqURL)
		return err
	}

	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) buildURL(query orders.PageQuery) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(query.PageSize))
	params.Set("fields", orderFields)
	if query.Cursor != "" {
		// A cursor request must not repeat the window filters.
		params.Set("page_info", query.Cursor)
	} else {
		params.Set("status", "any")
		if !query.UpdatedAtMin.IsZero() {
			params.Set("updated_at_min", query.UpdatedAtMin.UTC().Format(time.RFC3339))
		}
	}
	return c.config.apiBaseURL() + "/orders.json?" + params.Encode()
}

// fetchOnce performs a single HTTP round trip. Errors it returns are
// retryable unless wrapped as permanent.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (*orders.OrderPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("shopify: failed to create request: %w", err))
	}
	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orders.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := retryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("rate limited by shopify",
			zap.Duration("retry_after", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("%w: HTTP 429", orders.ErrSourceRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", orders.ErrSourceRequestFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", orders.ErrSourceRequestFailed, resp.StatusCode))
	}

	var parsed ordersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %v", orders.ErrSourceInvalidResponse, err))
	}

	page := &orders.OrderPage{
		NextCursor: nextPageCursor(resp.Header.Get("Link")),
	}
	for i := range parsed.Orders {
		page.Records = append(page.Records, parsed.Orders[i].toDomain())
	}
	return page, nil
}

// retryAfter parses the Retry-After header, defaulting to 2s when absent
// or unparseable.
func retryAfter(header string) time.Duration {
	if header != "" {
		if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 2 * time.Second
}

// nextPageCursor extracts the page_info cursor of the rel="next" link from
// a Link header. Returns empty on the last page.
func nextPageCursor(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end < 0 || end <= start+1 {
			continue
		}
		linkURL, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return linkURL.Query().Get("page_info")
	}
	return ""
}
