package capability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/depthscan/internal/model"
)

// ErrUnavailable is returned by the no-op Fetcher and Renderer.
var ErrUnavailable = errors.New("capability unavailable")

// Fetcher retrieves a URL over plain HTTP. A non-2xx response is a result,
// not an error; errors are transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.FetchResult, error)
}

// RenderOptions controls a single Render call.
type RenderOptions struct {
	// FillForms fills every form input with the sentinel payload and
	// submits each form, collecting flags from the resulting pages.
	FillForms bool

	// Settle is how long the page is given to run scripts after navigation.
	// Zero uses the renderer's default.
	Settle time.Duration
}

// Renderer loads a URL in a headless browser and returns the rendered page.
type Renderer interface {
	// Available reports whether the renderer can be used at all.
	Available() bool

	Render(ctx context.Context, url string, opts RenderOptions) (*model.RenderResult, error)
}

// Scorer scores text against a trained per-signature classifier.
type Scorer interface {
	// Available reports whether any model is loaded.
	Available() bool

	// Score returns the probability that text is evidence of the named
	// signature and whether it reaches the positive threshold. Unknown
	// signatures score 0, false.
	Score(text, signature string) (float64, bool)

	// Signatures lists the signature names that have a model.
	Signatures() []string
}

// Set bundles the collaborators of one run.
type Set struct {
	Fetcher  Fetcher
	Renderer Renderer
	Scorer   Scorer
}

// Resolve returns a copy of s where every missing or unavailable optional
// capability is replaced by its no-op. Each substitution is logged at info
// level. Resolving an already resolved Set logs nothing. A nil Fetcher
// becomes NoopFetcher so a misconfigured run still completes with every
// node in error.
func (s Set) Resolve(logger *slog.Logger) Set {
	if logger == nil {
		logger = slog.Default()
	}
	if s.Fetcher == nil {
		logger.Info("no fetcher configured, every fetch will fail")
		s.Fetcher = NoopFetcher{}
	}
	if _, noop := s.Renderer.(NoopRenderer); !noop && (s.Renderer == nil || !s.Renderer.Available()) {
		logger.Info("headless browser unavailable, rendering disabled")
		s.Renderer = NoopRenderer{}
	}
	if _, noop := s.Scorer.(NoopScorer); !noop && (s.Scorer == nil || !s.Scorer.Available()) {
		logger.Info("classifier unavailable, classifier findings disabled")
		s.Scorer = NoopScorer{}
	}
	return s
}

// NoopFetcher fails every fetch with ErrUnavailable.
type NoopFetcher struct{}

// Fetch implements Fetcher.
func (NoopFetcher) Fetch(context.Context, string) (*model.FetchResult, error) {
	return nil, ErrUnavailable
}

// NoopRenderer is the Renderer used without a browser. It is never
// available and Render fails with ErrUnavailable.
type NoopRenderer struct{}

// Available returns false.
func (NoopRenderer) Available() bool { return false }

// Render implements Renderer.
func (NoopRenderer) Render(context.Context, string, RenderOptions) (*model.RenderResult, error) {
	return nil, ErrUnavailable
}

// NoopScorer scores everything 0.
type NoopScorer struct{}

// Available returns false.
func (NoopScorer) Available() bool { return false }

// Score implements Scorer.
func (NoopScorer) Score(string, string) (float64, bool) { return 0, false }

// Signatures returns nil.
func (NoopScorer) Signatures() []string { return nil }
