// Package fetch retrieves pages over HTTP with a disk cache and a
// per-client rate limit in front of the network.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fightdata/ufc-ranker/internal/metrics"
)

// ErrNetwork wraps every transport-level failure so callers can
// distinguish unreachable sources from unparseable ones.
var ErrNetwork = errors.New("fetch: network failure")

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Delay     time.Duration
	CacheDir  string
}

// Client fetches pages for one named scraper. Cached pages bypass the
// limiter; network hits wait for a token first.
type Client struct {
	name      string
	cfg       Config
	collector *colly.Collector
	cache     *Cache
	limiter   *rate.Limiter
	log       *zap.Logger
}

// New builds a Client. name scopes the cache directory and shows up
// in logs and metrics.
func New(name string, cfg Config, log *zap.Logger) (*Client, error) {
	cache, err := NewCache(cfg.CacheDir, name)
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}

	return &Client{
		name:      name,
		cfg:       cfg,
		collector: c,
		cache:     cache,
		limiter:   limiter,
		log:       log.Named("fetch." + name),
	}, nil
}

// Get returns the page body for url, serving from the disk cache when
// possible. Soft hyphens are stripped before the body is returned or
// cached.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		metrics.PageFetched(c.name, "hit")
		c.log.Debug("cache hit", zap.String("url", url))
		return body, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	body, err := c.visit(ctx, url)
	if err != nil {
		metrics.PageFetched(c.name, "error")
		return nil, err
	}
	body = stripSoftHyphens(body)

	if err := c.cache.Put(url, body); err != nil {
		c.log.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
	metrics.PageFetched(c.name, "miss")
	return body, nil
}

// GetDocument fetches url and parses the body as HTML.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %s: %w", url, err)
	}
	return doc, nil
}

// ClearCache drops every cached page for this client.
func (c *Client) ClearCache() error {
	return c.cache.Clear()
}

func (c *Client) visit(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)
	start := time.Now()

	collector := c.collector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%w: visit %s: %v", ErrNetwork, url, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: %s returned %d: %v", ErrNetwork, url, status, fetchErr)
		}
	}

	c.log.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))
	return body, nil
}

func stripSoftHyphens(body []byte) []byte {
	s := string(body)
	s = strings.ReplaceAll(s, "­", "")
	s = strings.ReplaceAll(s, "&shy;", "")
	return []byte(s)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
