package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// ErrDisallowed marks URLs the site's robots.txt excludes for our agent.
var ErrDisallowed = errors.New("blocked by robots.txt")

// Client is the shared outbound HTTP resource for listing scans and article
// fetches. It paces requests per host and caches robots.txt verdicts. The
// application wiring owns exactly one instance and passes it to every
// fetcher; Close releases pooled connections.
type Client struct {
	http      *http.Client
	userAgent string

	hostInterval time.Duration
	limiterMu    sync.RWMutex
	limiters     map[string]*rate.Limiter

	checkRobots bool
	robotsMu    sync.Mutex
	robots      map[string]*robotstxt.Group

	logger *slog.Logger
}

// NewClient builds the shared fetch client.
func NewClient(userAgent string, timeout, hostInterval time.Duration, checkRobots bool, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		hostInterval: hostInterval,
		limiters:     map[string]*rate.Limiter{},
		checkRobots:  checkRobots,
		robots:       map[string]*robotstxt.Group{},
		logger:       logger,
	}
}

// Get fetches one URL, honoring the per-host pace and robots.txt. The caller
// owns the response body. Non-2xx statuses are returned as errors with the
// body already closed.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %s has no host", rawURL)
	}

	if err := c.waitHost(ctx, parsed.Host); err != nil {
		return nil, err
	}

	if c.checkRobots {
		group := c.robotsGroup(ctx, parsed)
		if group != nil && !group.Test(parsed.Path) {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", parsed.Host, resp.Status)
	}

	return resp, nil
}

// Close releases pooled connections. Call once when the run driver shuts down.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// waitHost blocks until the host's limiter admits the next request.
func (c *Client) waitHost(ctx context.Context, host string) error {
	if c.hostInterval <= 0 {
		return nil
	}

	c.limiterMu.RLock()
	limiter, ok := c.limiters[host]
	c.limiterMu.RUnlock()

	if !ok {
		c.limiterMu.Lock()
		limiter, ok = c.limiters[host]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(c.hostInterval), 1)
			c.limiters[host] = limiter
		}
		c.limiterMu.Unlock()
	}

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for host %s: %w", host, err)
	}
	return nil
}

// robotsGroup returns the cached robots.txt rules for the URL's host. Any
// failure to fetch or parse robots.txt is treated as "no restrictions".
func (c *Client) robotsGroup(ctx context.Context, target *url.URL) *robotstxt.Group {
	c.robotsMu.Lock()
	defer c.robotsMu.Unlock()

	if group, ok := c.robots[target.Host]; ok {
		return group
	}

	group := c.fetchRobots(ctx, target)
	c.robots[target.Host] = group
	return group
}

func (c *Client) fetchRobots(ctx context.Context, target *url.URL) *robotstxt.Group {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.debug("robots.txt unavailable", "host", target.Host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.debug("robots.txt unparseable", "host", target.Host, "error", err)
		return nil
	}

	return data.FindGroup(c.userAgent)
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
