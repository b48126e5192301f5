// ABOUTME: HTTP retrieval of feed payloads with conditional requests, credentials, and bounded retries
// ABOUTME: Classifies failures so callers can tell auth problems from transient network trouble

package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/tripp1592/rss-reader/internal/models"
)

const MaxResponseSize = 10 * 1024 * 1024 // 10MB

const defaultUserAgent = "rss-reader/1.0 (feed sync)"

// Kind classifies a failed retrieval.
type Kind string

const (
	// KindUnauthorized covers 401 and 403: the credential is missing,
	// wrong, or expired. Needs user intervention, never retried.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound covers 404 and 410: the feed is gone from this URL.
	KindNotFound Kind = "not_found"
	// KindUnreachable covers everything between us and a usable
	// response: DNS failures, connection resets, TLS problems, 5xx.
	KindUnreachable Kind = "unreachable"
	// KindTimeout means the request exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// Error is a classified retrieval failure for one URL.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int // zero when the failure happened before a response arrived
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s (http %d)", e.Kind, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Kind, e.URL)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a credential failure, the one
// classification callers act on differently (prompt instead of skip).
func IsUnauthorized(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindUnauthorized
}

// Request describes one feed retrieval.
type Request struct {
	URL           string
	Credential    string
	CredPlacement models.CredPlacement
	ETag          string
	LastModified  string
}

// Result contains the response from a successful retrieval.
type Result struct {
	Body         []byte
	ETag         string
	LastModified string
	NotModified  bool
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	RetryBase  time.Duration
}

// Client retrieves feed payloads over HTTP.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries uint64
	retryBase  time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:  opts.UserAgent,
		maxRetries: uint64(opts.MaxRetries),
		retryBase:  opts.RetryBase,
	}
}

// Fetch retrieves req.URL, retrying transient failures with exponential
// backoff. Permanent failures (auth, 404, other 4xx, TLS) return after
// the first attempt. The returned error is either a *Error or, when the
// context was canceled mid-request, the underlying context error.
func (c *Client) Fetch(ctx context.Context, req Request) (*Result, error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	var res *Result
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.fetchOnce(ctx, req)
		if err != nil {
			var fe *Error
			if errors.As(err, &fe) && fe.Retryable {
				log.Debug().Str("url", req.URL).Err(err).Msg("retrying fetch")
				return retry.RetryableError(err)
			}
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) fetchOnce(ctx context.Context, r Request) (*Result, error) {
	httpReq, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: r.URL, Err: err}
	}

	if err := guardPrivateHost(httpReq.URL.Hostname()); err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: r.URL, Err: err}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(r.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &Result{NotModified: true, ETag: r.ETag, LastModified: r.LastModified}, nil
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindUnauthorized, URL: r.URL, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &Error{Kind: KindNotFound, URL: r.URL, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, &Error{Kind: KindUnreachable, URL: r.URL, StatusCode: resp.StatusCode, Retryable: true}
	default:
		return nil, &Error{Kind: KindUnreachable, URL: r.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, classifyTransport(r.URL, err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, &Error{Kind: KindUnreachable, URL: r.URL, Err: fmt.Errorf("response exceeds %d bytes", MaxResponseSize)}
	}

	res := &Result{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	// Keep known validators when the server stops sending them.
	if res.ETag == "" {
		res.ETag = r.ETag
	}
	if res.LastModified == "" {
		res.LastModified = r.LastModified
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	target := r.URL
	if r.Credential != "" && r.CredPlacement == models.CredPlacementQuery {
		u, err := url.Parse(r.URL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("token", r.Credential)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if r.Credential != "" && r.CredPlacement == models.CredPlacementHeader {
		req.Header.Set("Authorization", "Bearer "+r.Credential)
	}
	if r.ETag != "" {
		req.Header.Set("If-None-Match", r.ETag)
	}
	if r.LastModified != "" {
		req.Header.Set("If-Modified-Since", r.LastModified)
	}
	return req, nil
}

// guardPrivateHost blocks fetches that resolve to private or link-local
// address ranges. Loopback stays allowed so local feeds keep working.
func guardPrivateHost(host string) error {
	ips, err := net.LookupIP(host)
	if err != nil {
		// Let the transport surface the DNS failure with full detail.
		return nil
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			continue
		}
		if ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("host %s resolves to a private address", host)
		}
	}
	return nil
}

func classifyTransport(rawURL string, err error) error {
	// Cancellation is the caller's own signal, not a fetch failure.
	if errors.Is(err, context.Canceled) {
		return err
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return &Error{Kind: KindUnreachable, URL: rawURL, Err: err}
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, URL: rawURL, Retryable: true, Err: err}
	}

	return &Error{Kind: KindUnreachable, URL: rawURL, Retryable: true, Err: err}
}
