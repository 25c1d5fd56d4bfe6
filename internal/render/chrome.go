package render

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/model"
)

const (
	// DefaultTimeout bounds one Render call, form submissions included.
	DefaultTimeout = 30 * time.Second

	// DefaultSettle is the time scripts get to run after navigation.
	DefaultSettle = 1500 * time.Millisecond
)

// browserNames are the executables searched on PATH.
var browserNames = []string{"chrome", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "headless-shell"}

// Chrome renders pages in headless Chrome.
type Chrome struct {
	execPath  string
	proxy     string
	userAgent string
	timeout   time.Duration
	settle    time.Duration
	logger    *slog.Logger
	lookPath  func(string) (string, error)

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	closed      bool
}

// Option configures Chrome.
type Option func(*Chrome)

// WithExecPath sets the browser executable instead of searching PATH.
func WithExecPath(path string) Option {
	return func(c *Chrome) { c.execPath = path }
}

// WithProxy sets the browser's proxy server, e.g. "socks5://127.0.0.1:9050".
func WithProxy(proxy string) Option {
	return func(c *Chrome) { c.proxy = proxy }
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Chrome) { c.userAgent = ua }
}

// WithTimeout sets the per-Render timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Chrome) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSettle sets the default post-navigation wait.
func WithSettle(d time.Duration) Option {
	return func(c *Chrome) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chrome) { c.logger = logger }
}

// NewChrome returns a Chrome renderer. No browser is started until the
// first Render.
func NewChrome(opts ...Option) *Chrome {
	c := &Chrome{
		timeout:  DefaultTimeout,
		settle:   DefaultSettle,
		logger:   slog.Default(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ capability.Renderer = (*Chrome)(nil)

// Available reports whether a browser executable exists.
func (c *Chrome) Available() bool {
	return c.browserPath() != ""
}

func (c *Chrome) browserPath() string {
	if c.execPath != "" {
		if _, err := c.lookPath(c.execPath); err == nil {
			return c.execPath
		}
		return ""
	}
	for _, name := range browserNames {
		if path, err := c.lookPath(name); err == nil && path != "" {
			return path
		}
	}
	return ""
}

// allocator returns the shared allocator context, starting it on first use.
func (c *Chrome) allocator() (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.allocCtx != nil {
		return c.allocCtx, nil
	}

	path := c.browserPath()
	if path == "" {
		return nil, ErrBrowserUnavailable
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(path),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
	)
	if c.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(c.proxy))
	}
	if c.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.userAgent))
	}

	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	c.logger.Debug("headless browser allocator started", "path", path)
	return c.allocCtx, nil
}

// Render implements capability.Renderer.
func (c *Chrome) Render(ctx context.Context, pageURL string, opts capability.RenderOptions) (*model.RenderResult, error) {
	allocCtx, err := c.allocator()
	if err != nil {
		return nil, err
	}

	settle := c.settle
	if opts.Settle > 0 {
		settle = opts.Settle
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var body string
	var forms int
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &body, chromedp.ByQuery),
		chromedp.Evaluate(formCountScript, &forms),
	); err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	result := &model.RenderResult{Body: body, Flags: ExtractFlags(body)}
	if !opts.FillForms {
		return result, nil
	}

	for i := 0; i < forms; i++ {
		after, err := c.submitForm(tabCtx, pageURL, i, settle)
		if err != nil {
			c.logger.Debug("form submission failed", "url", pageURL, "form", i, "error", err)
			continue
		}
		result.FormsSubmitted++
		result.Flags = appendFlags(result.Flags, after)
	}
	return result, nil
}

// submitForm reloads pageURL, fills and submits form index, and returns the
// resulting page source.
func (c *Chrome) submitForm(ctx context.Context, pageURL string, index int, settle time.Duration) (string, error) {
	var submitted bool
	if err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
		chromedp.Evaluate(fillFormScript(index, FormPayload), &submitted),
	); err != nil {
		return "", err
	}
	if !submitted {
		return "", fmt.Errorf("form %d not found", index)
	}

	var after string
	if err := chromedp.Run(ctx,
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &after, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return after, nil
}

// Close stops the browser process. Render fails with ErrClosed afterwards.
func (c *Chrome) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCtx = nil
		c.allocCancel = nil
	}
}
