package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"

	"github.com/nao1215/depthscan/internal/model"
)

const (
	// DefaultTimeout bounds a single request including the body read.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodySize caps the bytes read from a response body.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) depthscan/1.0"

	maxRedirects = 10
)

// Site holds per-host request settings.
type Site struct {
	// Cookie is a raw Cookie header value, e.g. "session=abc".
	Cookie string

	// Headers are set on every request to the host.
	Headers map[string]string
}

// SiteFunc returns the settings for a host. It is called per request.
type SiteFunc func(host string) Site

// Client fetches pages over HTTP.
type Client struct {
	http        *http.Client
	userAgent   string
	maxBodySize int64
	limiter     *rate.Limiter
	sites       SiteFunc
}

// Option configures a Client.
type Option func(*options)

type options struct {
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	proxyAddr   string
	rps         float64
	sites       SiteFunc
	transport   http.RoundTripper
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the body size cap in bytes.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithProxy routes every connection through the SOCKS5 proxy at addr.
// An empty addr connects directly.
func WithProxy(addr string) Option {
	return func(o *options) { o.proxyAddr = addr }
}

// WithRateLimit limits the client to rps requests per second across all
// goroutines. Zero or negative means unlimited.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithSites sets the per-host settings lookup.
func WithSites(fn SiteFunc) Option {
	return func(o *options) { o.sites = fn }
}

// WithTransport replaces the base transport. The proxy option is ignored
// when a transport is given.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := options{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		t, err := newTransport(o.proxyAddr)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   o.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
		sites:       o.sites,
	}
	if o.rps > 0 {
		burst := int(o.rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), burst)
	}
	return c, nil
}

// newTransport returns a transport dialing directly or through a SOCKS5
// proxy.
func newTransport(proxyAddr string) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	if proxyAddr == "" {
		return t, nil
	}
	if !isValidProxyAddress(proxyAddr) {
		return nil, ErrInvalidProxyAddress
	}
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	t.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		t.DialContext = cd.DialContext
	} else {
		t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return t, nil
}

// isValidProxyAddress checks for "host:port" with a port in 1-65535.
func isValidProxyAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Fetch implements capability.Fetcher.
func (c *Client) Fetch(ctx context.Context, pageURL string) (*model.FetchResult, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	c.applySite(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &model.FetchResult{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) applySite(req *http.Request) {
	if c.sites == nil {
		return
	}
	site := c.sites(req.URL.Hostname())
	if site.Cookie != "" {
		req.Header.Set("Cookie", site.Cookie)
	}
	for k, v := range site.Headers {
		req.Header.Set(k, v)
	}
}

// readBody reads at most maxBodySize bytes and converts them to UTF-8.
// Bodies with an unknown charset are returned unconverted.
func (c *Client) readBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, c.maxBodySize)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.Contains(strings.ToLower(contentType), "utf-8") {
		return string(raw), nil
	}
	r, err := charset.NewReader(strings.NewReader(string(raw)), contentType)
	if err != nil {
		return string(raw), nil //nolint:nilerr // unknown charset keeps raw bytes
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(raw), nil //nolint:nilerr // partial decode keeps raw bytes
	}
	return string(decoded), nil
}
