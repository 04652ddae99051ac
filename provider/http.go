package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultServiceURL     = "http://hollywood-graph-crawler.bridgesuncc.org/neighbors/"
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultUserAgent      = "crawlgraph/1.0"

	maxResponseBytes = 16 << 20
)

// HTTPConfig describes the neighbor service. Node identifiers are
// percent-encoded (everything outside A-Z a-z 0-9 - . _ ~) and appended to
// BaseURL.
type HTTPConfig struct {
	BaseURL        string
	Timeout        time.Duration
	ConnectTimeout time.Duration
	UserAgent      string
	// RateLimit caps requests per second across all workers; 0 disables it.
	RateLimit float64
	Burst     int
}

// HTTPProvider fetches neighbors from the remote service. Each worker owns
// one, with its own client and connection pool.
type HTTPProvider struct {
	base      string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	transport *http.Transport
	client    *http.Client
}

// NewHTTPFactory validates cfg and returns a factory building one
// HTTPProvider per worker. The rate limiter, if any, is shared.
func NewHTTPFactory(cfg HTTPConfig) (Factory, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultServiceURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("service url %q: unsupported scheme %q", cfg.BaseURL, u.Scheme)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return func(int) (NeighborProvider, error) {
		return newHTTPProvider(cfg, limiter), nil
	}, nil
}

func newHTTPProvider(cfg HTTPConfig, limiter *rate.Limiter) *HTTPProvider {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPProvider{
		base:      cfg.BaseURL,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		limiter:   limiter,
		transport: transport,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// URLFor returns the request URL for node.
func (p *HTTPProvider) URLFor(node string) string {
	return p.base + EscapeNode(node)
}

const upperHex = "0123456789ABCDEF"

// EscapeNode percent-encodes every byte of node outside the RFC 3986
// unreserved set, sub-delimiters such as & and + included.
func EscapeNode(node string) string {
	var b strings.Builder
	b.Grow(len(node))
	for i := 0; i < len(node); i++ {
		c := node[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// NeighborsOf fetches and decodes the neighbor list of node.
func (p *HTTPProvider) NeighborsOf(node string) ([]string, error) {
	// Throttle before the request clock starts: the timeout bounds the
	// request, not the time spent queued behind other workers.
	if p.limiter != nil {
		if err := p.limiter.Wait(context.Background()); err != nil {
			return nil, &LookupError{Node: node, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URLFor(node), nil)
	if err != nil {
		return nil, &LookupError{Node: node, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &LookupError{Node: node, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, lookupErrorf(node, "unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &LookupError{Node: node, Err: fmt.Errorf("reading response: %w", err)}
	}
	neighbors, err := DecodeNeighbors(body)
	if err != nil {
		return nil, &LookupError{Node: node, Err: err}
	}
	return neighbors, nil
}

// Close drops the provider's idle connections.
func (p *HTTPProvider) Close() error {
	p.transport.CloseIdleConnections()
	return nil
}

var errEmptyBody = errors.New("empty response body")

// DecodeNeighbors parses a {"neighbors": [...]} document. Non-string entries
// are skipped; a missing or non-array "neighbors" member yields no neighbors.
func DecodeNeighbors(body []byte) ([]string, error) {
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	list, ok := obj["neighbors"].([]interface{})
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
