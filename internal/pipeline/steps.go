package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/crawler"
	"github.com/nao1215/depthscan/internal/detect"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

// DefaultDetectionLimit is the number of body characters detectors and the
// classifier inspect. Link and script extraction use the full body.
const DefaultDetectionLimit = 5000

// QueryParamStep inspects the node URL's query string. It runs even when
// the fetch failed.
type QueryParamStep struct {
	detector *detect.QueryParam
}

// NewQueryParamStep creates a QueryParamStep.
func NewQueryParamStep(lib *signature.Library) *QueryParamStep {
	return &QueryParamStep{detector: detect.NewQueryParam(lib)}
}

// Name implements Step.
func (s *QueryParamStep) Name() string { return "query-params" }

// Do implements Step.
func (s *QueryParamStep) Do(_ context.Context, scan *NodeScan) error {
	scan.AddFindings(s.detector.Detect(detect.Input{URL: scan.Node.URL})...)
	return nil
}

// ProbeStep merges the active probe findings in the order they were
// gathered.
type ProbeStep struct{}

// Name implements Step.
func (ProbeStep) Name() string { return "probes" }

// Do implements Step.
func (ProbeStep) Do(_ context.Context, scan *NodeScan) error {
	scan.AddFindings(scan.Probes...)
	return nil
}

// PassiveStep runs the passive detectors on the fetched page.
type PassiveStep struct {
	detectors *detect.Set
	limit     int
}

// NewPassiveStep creates a PassiveStep. The set should not include the
// query-param detector, which QueryParamStep already covers.
func NewPassiveStep(detectors *detect.Set, limit int) *PassiveStep {
	if limit <= 0 {
		limit = DefaultDetectionLimit
	}
	return &PassiveStep{detectors: detectors, limit: limit}
}

// Name implements Step.
func (s *PassiveStep) Name() string { return "passive" }

// Do implements Step.
func (s *PassiveStep) Do(_ context.Context, scan *NodeScan) error {
	fetch := scan.Node.Fetch
	if fetch == nil {
		return nil
	}
	scan.AddFindings(s.detectors.Run(detect.Input{
		URL:     scan.Node.URL,
		Headers: fetch.Headers,
		Body:    fetch.DetectionBody(s.limit),
	})...)
	return nil
}

// ClassifierStep scores the fetched page with every trained model. XSS is
// scored per inline script block; other signatures score the whole
// detection body.
type ClassifierStep struct {
	scorer capability.Scorer
	lib    *signature.Library
	limit  int
}

// NewClassifierStep creates a ClassifierStep.
func NewClassifierStep(scorer capability.Scorer, lib *signature.Library, limit int) *ClassifierStep {
	if scorer == nil {
		scorer = capability.NoopScorer{}
	}
	if limit <= 0 {
		limit = DefaultDetectionLimit
	}
	return &ClassifierStep{scorer: scorer, lib: lib, limit: limit}
}

// Name implements Step.
func (s *ClassifierStep) Name() string { return "classifier" }

// Do implements Step.
func (s *ClassifierStep) Do(_ context.Context, scan *NodeScan) error {
	if !s.scorer.Available() || scan.Node.Fetch == nil {
		return nil
	}
	body := scan.Node.Fetch.DetectionBody(s.limit)
	if body == "" {
		return nil
	}

	for _, name := range s.scorer.Signatures() {
		if name == signature.XSS {
			for _, script := range detect.InlineScripts(body) {
				s.score(scan, script, name)
			}
			continue
		}
		s.score(scan, body, name)
	}
	return nil
}

func (s *ClassifierStep) score(scan *NodeScan, text, name string) {
	prob, positive := s.scorer.Score(text, name)
	if !positive {
		return
	}
	method := fmt.Sprintf(signature.MethodClassifierFormat, prob)
	scan.AddFindings(model.NewFinding(name, method, text, s.lib.Explain(name), prob))
}

// RenderStep records render failures and runs the detectors on the
// rendered page.
type RenderStep struct {
	detectors   *detect.Set
	explanation string
	limit       int
}

// NewRenderStep creates a RenderStep.
func NewRenderStep(detectors *detect.Set, lib *signature.Library, limit int) *RenderStep {
	if limit <= 0 {
		limit = DefaultDetectionLimit
	}
	return &RenderStep{
		detectors:   detectors,
		explanation: lib.Explain(signature.RenderError),
		limit:       limit,
	}
}

// Name implements Step.
func (s *RenderStep) Name() string { return "render" }

// Do implements Step.
func (s *RenderStep) Do(_ context.Context, scan *NodeScan) error {
	node := scan.Node
	if err := node.RenderErr; err != nil && !errors.Is(err, capability.ErrUnavailable) {
		scan.AddFindings(model.NewFinding(
			signature.RenderError, signature.MethodBrowser, err.Error(), s.explanation, 1.0,
		))
	}
	if node.Render == nil || node.Render.Body == "" {
		return nil
	}
	scan.AddFindings(s.detectors.Run(detect.Input{
		URL:  node.URL,
		Body: model.Prefix(node.Render.Body, s.limit),
	})...)
	return nil
}

// ExtractStep fills in the server, title, links and script functions of
// the node from the full fetched and rendered bodies.
type ExtractStep struct{}

// Name implements Step.
func (ExtractStep) Name() string { return "extract" }

// Do implements Step.
func (ExtractStep) Do(_ context.Context, scan *NodeScan) error {
	node := scan.Node
	node.Server = node.Fetch.Server()

	if node.Fetch != nil {
		title, links := crawler.ExtractLinks(node.URL, node.Fetch.Body)
		node.Title = title
		scan.AddLinks(links...)
		scan.AddJSFunctions(detect.ExtractJSFunctions(node.Fetch.Body)...)
	}
	if node.Render != nil && node.Render.Body != "" {
		title, links := crawler.ExtractLinks(node.URL, node.Render.Body)
		if node.Title == "" {
			node.Title = title
		}
		scan.AddLinks(links...)
		scan.AddJSFunctions(detect.ExtractJSFunctions(node.Render.Body)...)
	}
	return nil
}

// Config holds the options of DefaultPipeline.
type Config struct {
	// Headers and Forms enable the header and form detectors.
	Headers bool
	Forms   bool

	// Passes is the number of decode passes of the body-pattern detector.
	Passes int

	// DetectionLimit caps the body characters detectors inspect.
	DetectionLimit int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{Headers: true, Forms: true, Passes: 2, DetectionLimit: DefaultDetectionLimit}
}

// DefaultPipeline returns the standard analysis pipeline. Step failures
// never stop the remaining steps.
func DefaultPipeline(lib *signature.Library, scorer capability.Scorer, cfg Config, opts ...Option) *Pipeline {
	p := New(append([]Option{WithContinueOnError(true)}, opts...)...)
	passive := detect.NewSet(lib,
		detect.WithHeaders(cfg.Headers),
		detect.WithForms(cfg.Forms),
		detect.WithPasses(cfg.Passes),
		detect.WithQueryParams(false),
		detect.WithLogger(p.logger),
	)
	p.AddSteps(
		NewQueryParamStep(lib),
		ProbeStep{},
		NewPassiveStep(passive, cfg.DetectionLimit),
		NewClassifierStep(scorer, lib, cfg.DetectionLimit),
		NewRenderStep(passive, lib, cfg.DetectionLimit),
		ExtractStep{},
	)
	return p
}
