package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/model"
)

const (
	// DefaultMaxDepth is the deepest layer crawled.
	DefaultMaxDepth = 2

	// DefaultFetchWorkers bounds concurrent fetch jobs.
	DefaultFetchWorkers = 50

	// DefaultRenderWorkers bounds concurrent render jobs.
	DefaultRenderWorkers = 5

	// DefaultDisruptionAttempts is the number of disruption requests per node.
	DefaultDisruptionAttempts = 3
)

// Prober runs the active probes of a node.
type Prober interface {
	FuzzHTTP(ctx context.Context, url string) []model.Finding
	FuzzRendered(ctx context.Context, url string) []model.Finding
	Disruption(ctx context.Context, url string, attempts int) []model.Finding
}

// Analyzer turns the joined fetch, render and probe outcomes of a node into
// its findings, title and links. It is called once per node by the worker
// that owns the node.
type Analyzer interface {
	Analyze(ctx context.Context, node *model.CrawlNode, probes []model.Finding)
}

// Observer is notified as nodes and layers resolve.
type Observer interface {
	NodeDone(node *model.CrawlNode)
	LayerDone(layer *model.Layer)
}

// LayerFunc is called after each layer resolves and before the next one
// starts. An error aborts the run.
type LayerFunc func(ctx context.Context, layer *model.Layer) error

// Result is the outcome of a run.
type Result struct {
	// Nodes are every processed node, layer by layer.
	Nodes []*model.CrawlNode

	// Layers are the resolved layers in depth order.
	Layers []*model.Layer

	// Graph holds the discovered link edges.
	Graph *LinkGraph

	// Discovered is the number of distinct URLs ever queued.
	Discovered int

	// Started and Finished bound the run.
	Started  time.Time
	Finished time.Time
}

// Scheduler runs a depth-layered crawl.
type Scheduler struct {
	caps          capability.Set
	analyzer      Analyzer
	prober        Prober
	observer      Observer
	onLayer       []LayerFunc
	scope         *Scope
	scopeOpts     []ScopeOption
	maxDepth      int
	maxPages      int
	fetchWorkers  int64
	renderWorkers int64
	attempts      int
	renderOpts    capability.RenderOptions
	logger        *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth sets the maximum crawl depth. Depth 0 processes only the
// seeds.
func WithMaxDepth(depth int) Option {
	return func(s *Scheduler) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithMaxPages caps the number of processed nodes. Zero means unlimited.
func WithMaxPages(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.maxPages = n
		}
	}
}

// WithFetchWorkers sets the fetch pool size.
func WithFetchWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.fetchWorkers = int64(n)
		}
	}
}

// WithRenderWorkers sets the render pool size.
func WithRenderWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.renderWorkers = int64(n)
		}
	}
}

// WithDisruptionAttempts sets the number of disruption requests per node.
// Zero disables the disruption probe.
func WithDisruptionAttempts(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.attempts = n
		}
	}
}

// WithProber sets the active prober. Without one no active probing is done.
func WithProber(p Prober) Option {
	return func(s *Scheduler) { s.prober = p }
}

// WithObserver sets the node and layer observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithLayerFunc adds a layer callback. Callbacks run in the order they
// were added; the first error aborts the run.
func WithLayerFunc(fn LayerFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.onLayer = append(s.onLayer, fn)
		}
	}
}

// WithScope sets the scope options applied to the seeds of each run.
func WithScope(opts ...ScopeOption) Option {
	return func(s *Scheduler) { s.scopeOpts = append(s.scopeOpts, opts...) }
}

// WithRenderOptions sets the options passed to every node render.
func WithRenderOptions(opts capability.RenderOptions) Option {
	return func(s *Scheduler) { s.renderOpts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler returns a Scheduler. caps is resolved once here, so missing
// optional capabilities become no-ops.
func NewScheduler(caps capability.Set, analyzer Analyzer, opts ...Option) *Scheduler {
	s := &Scheduler{
		analyzer:      analyzer,
		maxDepth:      DefaultMaxDepth,
		fetchWorkers:  DefaultFetchWorkers,
		renderWorkers: DefaultRenderWorkers,
		attempts:      DefaultDisruptionAttempts,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.caps = caps.Resolve(s.logger)
	return s
}

// run is the state of one Run call.
type run struct {
	frontier  *Frontier
	graph     *LinkGraph
	scope     *Scope
	fetchSem  *semaphore.Weighted
	renderSem *semaphore.Weighted
}

// Run crawls from seeds until the frontier is empty, the maximum depth is
// exhausted or the page cap is reached. The returned Result is non-nil even
// when an error is returned, and holds every layer resolved so far.
func (s *Scheduler) Run(ctx context.Context, seeds []string) (*Result, error) {
	r := &run{
		frontier:  NewFrontier(),
		graph:     NewLinkGraph(),
		fetchSem:  semaphore.NewWeighted(s.fetchWorkers),
		renderSem: semaphore.NewWeighted(s.renderWorkers),
	}
	normalized := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		normalized = append(normalized, NormalizeURL(seed))
	}
	r.scope = NewScope(normalized, s.scopeOpts...)
	for _, seed := range normalized {
		r.frontier.Push(seed, 0)
	}

	result := &Result{Graph: r.graph, Started: time.Now()}
	defer func() {
		result.Discovered = r.frontier.SeenCount()
		result.Finished = time.Now()
	}()

	for r.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		depth, urls := r.frontier.PopLayer()
		if depth > s.maxDepth {
			break
		}
		if s.maxPages > 0 {
			remaining := s.maxPages - len(result.Nodes)
			if remaining <= 0 {
				s.logger.Info("page limit reached", "max_pages", s.maxPages)
				break
			}
			if len(urls) > remaining {
				urls = urls[:remaining]
			}
		}

		layer := s.runLayer(ctx, r, depth, urls)
		result.Layers = append(result.Layers, layer)
		result.Nodes = append(result.Nodes, layer.Nodes...)

		s.logger.Info("layer resolved",
			"depth", depth,
			"nodes", len(layer.Nodes),
			"findings", layer.FindingCount(),
			"duration", layer.Duration,
		)
		if s.observer != nil {
			s.observer.LayerDone(layer)
		}
		for _, fn := range s.onLayer {
			if err := fn(ctx, layer); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

// runLayer processes every URL of one depth in parallel and returns when
// all of them have resolved.
func (s *Scheduler) runLayer(ctx context.Context, r *run, depth int, urls []string) *model.Layer {
	start := time.Now()
	nodes := make([]*model.CrawlNode, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			node := s.runNode(ctx, r, u, depth)
			s.discover(r, node)
			nodes[i] = node
			if s.observer != nil {
				s.observer.NodeDone(node)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // node jobs never return errors

	return &model.Layer{Depth: depth, Nodes: nodes, Duration: time.Since(start)}
}

// runNode runs the fetch and render jobs of one URL concurrently, waits for
// both and hands the outcomes to the analyzer.
func (s *Scheduler) runNode(ctx context.Context, r *run, url string, depth int) *model.CrawlNode {
	node := &model.CrawlNode{URL: url, Depth: depth, StartedAt: time.Now()}

	var (
		wg         sync.WaitGroup
		fuzzHTTP   []model.Finding
		disruption []model.Finding
		fuzzRender []model.Finding
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := r.fetchSem.Acquire(ctx, 1); err != nil {
			node.FetchErr = err
			return
		}
		defer r.fetchSem.Release(1)

		if s.prober != nil {
			fuzzHTTP = s.prober.FuzzHTTP(ctx, url)
			if s.attempts > 0 {
				disruption = s.prober.Disruption(ctx, url, s.attempts)
			}
		}
		node.Fetch, node.FetchErr = s.caps.Fetcher.Fetch(ctx, url)
		if node.FetchErr != nil {
			node.Fetch = nil
			s.logger.Debug("fetch failed", "url", url, "error", node.FetchErr)
		}
	}()

	go func() {
		defer wg.Done()
		if !s.caps.Renderer.Available() {
			return
		}
		if err := r.renderSem.Acquire(ctx, 1); err != nil {
			node.RenderErr = err
			return
		}
		defer r.renderSem.Release(1)

		node.Render, node.RenderErr = s.caps.Renderer.Render(ctx, url, s.renderOpts)
		if node.RenderErr != nil {
			node.Render = nil
			s.logger.Debug("render failed", "url", url, "error", node.RenderErr)
		}
		if s.prober != nil {
			fuzzRender = s.prober.FuzzRendered(ctx, url)
		}
	}()

	wg.Wait()

	probes := make([]model.Finding, 0, len(fuzzHTTP)+len(fuzzRender)+len(disruption))
	probes = append(probes, fuzzHTTP...)
	probes = append(probes, fuzzRender...)
	probes = append(probes, disruption...)

	if s.analyzer != nil {
		s.analyzer.Analyze(ctx, node, probes)
	} else {
		node.Findings = probes
	}
	node.FinishedAt = time.Now()
	return node
}

// discover records the node's in-scope links and queues the unseen ones at
// the next depth when it is within the limit.
func (s *Scheduler) discover(r *run, node *model.CrawlNode) {
	next := node.Depth + 1
	kept := node.Links[:0]
	for _, link := range node.Links {
		if !r.scope.Allow(link) {
			continue
		}
		kept = append(kept, link)
		r.graph.AddEdge(node.URL, link)
		if next <= s.maxDepth {
			r.frontier.Push(link, next)
		}
	}
	node.Links = kept
}
