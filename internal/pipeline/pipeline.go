package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/depthscan/internal/model"
)

// Step is one stage of the per-node analysis.
type Step interface {
	// Do executes the step. A returned error is logged and, depending on
	// the pipeline configuration, stops the remaining steps. Steps record
	// recoverable problems as findings and return nil.
	Do(ctx context.Context, scan *NodeScan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// NodeScan is the working state of one node while the pipeline runs. It is
// owned by a single worker.
type NodeScan struct {
	// Node is the node under analysis. Fetch and Render are already set.
	Node *model.CrawlNode

	// Probes are the active probe findings gathered before the join.
	Probes []model.Finding

	findings  *model.FindingSet
	links     []string
	seenLinks map[string]struct{}
	scripts   []string
	seenJS    map[string]struct{}
}

// NewNodeScan returns a NodeScan for node.
func NewNodeScan(node *model.CrawlNode, probes []model.Finding) *NodeScan {
	return &NodeScan{
		Node:      node,
		Probes:    probes,
		findings:  model.NewFindingSet(),
		seenLinks: make(map[string]struct{}),
		seenJS:    make(map[string]struct{}),
	}
}

// AddFindings records findings, dropping exact duplicates.
func (s *NodeScan) AddFindings(findings ...model.Finding) int {
	return s.findings.Add(findings...)
}

// AddLinks records links, dropping duplicates.
func (s *NodeScan) AddLinks(links ...string) {
	for _, l := range links {
		if _, ok := s.seenLinks[l]; ok {
			continue
		}
		s.seenLinks[l] = struct{}{}
		s.links = append(s.links, l)
	}
}

// AddJSFunctions records extracted function definitions, dropping
// duplicates.
func (s *NodeScan) AddJSFunctions(funcs ...string) {
	for _, f := range funcs {
		if _, ok := s.seenJS[f]; ok {
			continue
		}
		s.seenJS[f] = struct{}{}
		s.scripts = append(s.scripts, f)
	}
}

// Findings returns the findings recorded so far.
func (s *NodeScan) Findings() []model.Finding {
	return s.findings.Items()
}

// Links returns the links recorded so far.
func (s *NodeScan) Links() []string {
	return s.links
}

// commit writes the accumulated state back to the node.
func (s *NodeScan) commit() {
	s.Node.Findings = s.findings.Items()
	s.Node.Links = s.links
	s.Node.JSFunctions = s.scripts
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against scan.
//
// The context is checked before each step. Returns the first step error if
// continueOnError is false, or nil once every step has run.
func (p *Pipeline) Execute(ctx context.Context, scan *NodeScan) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", scan.Node.URL,
				"reason", err,
			)
			return err
		}

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", scan.Node.URL,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
			continue
		}
		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", scan.Node.URL,
		)
	}
	return nil
}

// Analyze runs the pipeline for node and writes the result back to it.
// Whatever the steps recorded before a failure is kept.
func (p *Pipeline) Analyze(ctx context.Context, node *model.CrawlNode, probes []model.Finding) {
	scan := NewNodeScan(node, probes)
	_ = p.Execute(ctx, scan) //nolint:errcheck // failures are logged and partial results kept
	scan.commit()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
