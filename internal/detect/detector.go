package detect

import (
	"log/slog"
	"net/http"

	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

// Input is what a detector inspects. Detectors that need a field that is
// empty return no findings, so a rendered page can be passed with only Body
// set.
type Input struct {
	// URL is the page URL including its query string.
	URL string

	// Headers are the response headers. Nil for rendered pages.
	Headers http.Header

	// Body is the raw page source.
	Body string
}

// Detector analyzes one Input.
type Detector interface {
	// Name identifies the detector in logs.
	Name() string

	// Detect returns the findings for in. It must not panic and must not
	// retain in.
	Detect(in Input) []model.Finding
}

// Set runs a fixed list of detectors.
type Set struct {
	detectors []Detector
	logger    *slog.Logger
}

// Option configures a Set built by NewSet.
type Option func(*setOptions)

type setOptions struct {
	headers bool
	forms   bool
	query   bool
	passes  int
	logger  *slog.Logger
}

// WithHeaders enables or disables the header detector.
func WithHeaders(enabled bool) Option {
	return func(o *setOptions) { o.headers = enabled }
}

// WithForms enables or disables the form detector.
func WithForms(enabled bool) Option {
	return func(o *setOptions) { o.forms = enabled }
}

// WithQueryParams enables or disables the query-param detector. Callers
// that inspect the URL separately from the page bodies turn it off.
func WithQueryParams(enabled bool) Option {
	return func(o *setOptions) { o.query = enabled }
}

// WithPasses sets the number of decode passes of the body-pattern detector.
func WithPasses(n int) Option {
	return func(o *setOptions) {
		if n > 0 {
			o.passes = n
		}
	}
}

// WithLogger sets the logger used to report recovered detector panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *setOptions) { o.logger = logger }
}

// NewSet returns a Set with every detector registered, in the order
// body-pattern, DOM, header, form, query-param.
func NewSet(lib *signature.Library, opts ...Option) *Set {
	o := setOptions{headers: true, forms: true, query: true, passes: 2}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	s := &Set{logger: o.logger}
	s.Register(NewBodyPattern(lib, o.passes))
	s.Register(NewDOM(lib))
	if o.headers {
		s.Register(NewHeader(lib))
	}
	if o.forms {
		s.Register(NewForm(lib))
	}
	if o.query {
		s.Register(NewQueryParam(lib))
	}
	return s
}

// Register appends a detector.
func (s *Set) Register(d Detector) {
	s.detectors = append(s.detectors, d)
}

// Names returns the registered detector names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		names[i] = d.Name()
	}
	return names
}

// Run invokes every detector on in and concatenates their findings.
func (s *Set) Run(in Input) []model.Finding {
	var out []model.Finding
	for _, d := range s.detectors {
		out = append(out, s.safeDetect(d, in)...)
	}
	return out
}

// safeDetect turns a detector panic into an empty result.
func (s *Set) safeDetect(d Detector, in Input) (findings []model.Finding) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("detector panicked", "detector", d.Name(), "url", in.URL, "panic", r)
			findings = nil
		}
	}()
	return d.Detect(in)
}
