package probe

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/detect"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

const (
	// DefaultTimeout bounds each probe request.
	DefaultTimeout = 3 * time.Second

	// DefaultAttempts is the number of disruption probe requests.
	DefaultAttempts = 3

	// ExceptionSnippet is the evidence of a disruption request that failed
	// without a response.
	ExceptionSnippet = "Exception"
)

// Delay is a closed range a pause is drawn from uniformly.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

var (
	// DefaultFuzzDelay spaces payload requests.
	DefaultFuzzDelay = Delay{Min: 1200 * time.Millisecond, Max: 2500 * time.Millisecond}

	// DefaultDisruptionDelay spaces disruption requests.
	DefaultDisruptionDelay = Delay{Min: time.Second, Max: 2 * time.Second}
)

// draw returns a random duration in [Min, Max].
func (d Delay) draw() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

// Prober runs active probes against one URL at a time. It holds no
// per-call state and may be shared by all workers.
type Prober struct {
	fetcher         capability.Fetcher
	renderer        capability.Renderer
	body            *detect.BodyPattern
	explain         string
	payloads        []string
	timeout         time.Duration
	renderTimeout   time.Duration
	fuzzDelay       Delay
	disruptionDelay Delay
	logger          *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithPayloads replaces the payload list. An empty list keeps the default.
func WithPayloads(payloads []string) Option {
	return func(p *Prober) {
		if len(payloads) > 0 {
			p.payloads = append([]string(nil), payloads...)
		}
	}
}

// WithTimeout sets the per-request timeout of HTTP probes.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRenderTimeout sets the per-payload timeout of browser probes. Zero
// leaves the renderer's own timeout in charge.
func WithRenderTimeout(d time.Duration) Option {
	return func(p *Prober) { p.renderTimeout = d }
}

// WithFuzzDelay sets the pause before each payload request.
func WithFuzzDelay(d Delay) Option {
	return func(p *Prober) { p.fuzzDelay = d }
}

// WithDisruptionDelay sets the pause before each disruption request.
func WithDisruptionDelay(d Delay) Option {
	return func(p *Prober) { p.disruptionDelay = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// New returns a Prober. The renderer may be a no-op.
func New(fetcher capability.Fetcher, renderer capability.Renderer, lib *signature.Library, opts ...Option) *Prober {
	if renderer == nil {
		renderer = capability.NoopRenderer{}
	}
	p := &Prober{
		fetcher:         fetcher,
		renderer:        renderer,
		body:            detect.NewBodyPattern(lib, 0),
		explain:         lib.Explain(signature.ServiceDisruption),
		payloads:        DefaultPayloads(),
		timeout:         DefaultTimeout,
		fuzzDelay:       DefaultFuzzDelay,
		disruptionDelay: DefaultDisruptionDelay,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Payloads returns the payloads in use.
func (p *Prober) Payloads() []string {
	return append([]string(nil), p.payloads...)
}

// FuzzHTTP requests target once per payload and runs the body-pattern
// detector on each response.
func (p *Prober) FuzzHTTP(ctx context.Context, target string) []model.Finding {
	set := model.NewFindingSet()
	for _, payload := range p.payloads {
		if !sleep(ctx, p.fuzzDelay.draw()) {
			break
		}
		injected := InjectURL(target, payload)
		res, err := p.fetch(ctx, injected)
		if err != nil {
			p.logger.Debug("payload request failed", "url", injected, "error", err)
			continue
		}
		set.Add(p.body.Detect(detect.Input{URL: injected, Body: res.Body})...)
	}
	return set.Items()
}

// FuzzRendered loads target once per payload in the headless browser and
// runs the body-pattern detector on the rendered source. It returns nil
// when the renderer is unavailable.
func (p *Prober) FuzzRendered(ctx context.Context, target string) []model.Finding {
	if !p.renderer.Available() {
		return nil
	}
	set := model.NewFindingSet()
	for _, payload := range p.payloads {
		injected := InjectURL(target, payload)
		res, err := p.render(ctx, injected)
		if err != nil {
			p.logger.Debug("browser payload failed", "url", injected, "error", err)
		} else {
			set.Add(p.body.Detect(detect.Input{URL: injected, Body: res.Body})...)
		}
		if !sleep(ctx, p.fuzzDelay.draw()) {
			break
		}
	}
	return set.Items()
}

// Disruption requests target attempts times. Every 5xx response and every
// failed request yields a Service Disruption finding whose snippet is the
// status code or ExceptionSnippet.
func (p *Prober) Disruption(ctx context.Context, target string, attempts int) []model.Finding {
	var out []model.Finding
	for i := 0; i < attempts; i++ {
		if !sleep(ctx, p.disruptionDelay.draw()) {
			break
		}
		res, err := p.fetch(ctx, target)
		switch {
		case err != nil:
			out = append(out, p.disruption(ExceptionSnippet))
		case res.StatusCode >= 500:
			out = append(out, p.disruption(strconv.Itoa(res.StatusCode)))
		}
	}
	return out
}

func (p *Prober) disruption(snippet string) model.Finding {
	return model.NewFinding(signature.ServiceDisruption, signature.MethodDisruption, snippet, p.explain, 1.0)
}

func (p *Prober) fetch(ctx context.Context, target string) (*model.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.fetcher.Fetch(ctx, target)
}

func (p *Prober) render(ctx context.Context, target string) (*model.RenderResult, error) {
	if p.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.renderTimeout)
		defer cancel()
	}
	return p.renderer.Render(ctx, target, capability.RenderOptions{})
}

// sleep pauses for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
