// Package hltv implements the crawl side of the dataset builder: a
// rate-limited HTML fetcher plus one extractor per page family (event
// bracket, team roster, lineup history, match page, map statistics,
// economy, box score). The site's markup is the wire contract; a missing
// region means the contract changed and is surfaced as an error naming
// the entity being processed, never swallowed.
package hltv

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.81 Safari/537.36"

// Config controls fetch pacing and block recovery.
type Config struct {
	// BaseURL is the scheme+host of the statistics site.
	BaseURL string
	// MinInterval is the minimum spacing between two requests. Each call
	// blocks the caller until the interval has elapsed; there is no token
	// bucket because the crawl is strictly sequential.
	MinInterval time.Duration
	// Cooldown is how long to sleep after the site serves an
	// access-denial page before retrying the same URL.
	Cooldown time.Duration
	// MaxBlockRetries bounds the block-retry loop. Zero retries forever,
	// matching the site's observed behavior of eventually unblocking.
	MaxBlockRetries int
	HTTPClient      *http.Client
	Logger          *logrus.Logger
}

// Client fetches and parses pages with cooperative pacing. It is not
// safe for concurrent use; the crawl session is single-threaded by
// design and the pacing clock assumes one request in flight at a time.
type Client struct {
	base            string
	http            *http.Client
	minInterval     time.Duration
	cooldown        time.Duration
	maxBlockRetries int
	log             *logrus.Logger

	lastRequest time.Time

	// sleep is swapped out in tests so pacing and cooldowns don't make
	// the suite wall-clock slow.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a client for the given site.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		base:            strings.TrimRight(cfg.BaseURL, "/"),
		http:            httpClient,
		minInterval:     cfg.MinInterval,
		cooldown:        cfg.Cooldown,
		maxBlockRetries: cfg.MaxBlockRetries,
		log:             log,
		sleep:           sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// blockedTitle reports whether a page title signals an access-denial
// response (the site's rate limiter or its CDN interstitial).
func blockedTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return strings.Contains(t, "access denied") ||
		strings.Contains(t, "just a moment") ||
		strings.Contains(t, "attention required")
}

// get fetches path relative to the base URL and parses it. It enforces
// the pacing interval before the request and handles access-denial
// pages by sleeping the cooldown and retrying the same URL.
func (c *Client) get(ctx context.Context, path string) (*goquery.Document, error) {
	url := c.base + path

	for attempt := 0; ; attempt++ {
		if !c.lastRequest.IsZero() {
			if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
				if err := c.sleep(ctx, wait); err != nil {
					return nil, fmt.Errorf("GET %s: %w", path, err)
				}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		c.lastRequest = time.Now()
		if err != nil {
			return nil, fmt.Errorf("GET %s: parse: %w", path, err)
		}

		blocked := blockedTitle(doc.Find("title").Text()) ||
			resp.StatusCode == http.StatusForbidden ||
			resp.StatusCode == http.StatusTooManyRequests
		if !blocked {
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
			}
			return doc, nil
		}

		if c.maxBlockRetries > 0 && attempt+1 >= c.maxBlockRetries {
			return nil, fmt.Errorf("GET %s: still blocked after %d attempts", path, c.maxBlockRetries)
		}
		c.log.WithFields(logrus.Fields{
			"path":     path,
			"cooldown": c.cooldown,
			"attempt":  attempt + 1,
		}).Warn("blocked by site, cooling down")
		if err := c.sleep(ctx, c.cooldown); err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
	}
}
