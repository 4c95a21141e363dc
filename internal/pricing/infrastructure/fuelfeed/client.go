package fuelfeed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"

	charging "evcharge-manager/internal/charging/domain"
	"evcharge-manager/internal/observability/metrics"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = 24 * time.Hour
	fuelRowLabel    = "benzina"
)

// Client fetches the national reference gasoline price from the ministry
// open-data feed: a semicolon-delimited, Latin-1 encoded table whose price
// column uses the decimal comma. Any failure falls back to the configured
// backup price with live=false; the caller never sees an error.
type Client struct {
	feedURL     string
	backupPrice float64
	httpClient  *http.Client
	cacheTTL    time.Duration
	logger      *log.Logger

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithCacheTTL overrides how long a live price is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// NewClient constructs a feed client.
func NewClient(feedURL string, backupPrice float64, logger *log.Logger, opts ...Option) (*Client, error) {
	if backupPrice <= 0 {
		return nil, errors.New("fuelfeed: backup price must be positive")
	}
	c := &Client{
		feedURL:     feedURL,
		backupPrice: backupPrice,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		cacheTTL:    defaultCacheTTL,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns the reference price per liter and whether it came from the
// live feed. A live value is cached for the TTL; fallback values are not
// cached so the next call retries the feed.
func (c *Client) Fetch(ctx context.Context) (float64, bool) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.cacheTTL {
		price := c.cached
		c.mu.Unlock()
		metrics.IncFuelFeedFetch(true)
		return price, true
	}
	c.mu.Unlock()

	price, err := c.fetchLive(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("fuelfeed: falling back to %.3f: %v", c.backupPrice, err)
		}
		metrics.IncFuelFeedFetch(false)
		return c.backupPrice, false
	}

	c.mu.Lock()
	c.cached = price
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	metrics.IncFuelFeedFetch(true)
	return price, true
}

// BackupPrice exposes the configured fallback.
func (c *Client) BackupPrice() float64 { return c.backupPrice }

func (c *Client) fetchLive(ctx context.Context) (float64, error) {
	if c.feedURL == "" {
		return 0, errors.New("no feed url configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(resp.Body))
	for scanner.Scan() {
		price, ok := parseFeedLine(scanner.Text())
		if ok {
			return price, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("no gasoline row in feed")
}

// parseFeedLine extracts the price from a "LABEL;PRICE;..." line whose label
// contains the gasoline keyword.
func parseFeedLine(line string) (float64, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return 0, false
	}
	if !strings.Contains(strings.ToLower(fields[0]), fuelRowLabel) {
		return 0, false
	}
	price, err := charging.ParseDecimal(fields[1])
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
