package detect

import (
	"net/url"
	"regexp"
	"sort"

	"github.com/nao1215/depthscan/internal/decode"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

var (
	queryNamePattern  = regexp.MustCompile(`(?i)cmd|exec|shell|script|token|redir|redirect`)
	queryValuePattern = regexp.MustCompile(`(?i)<>|<script|'\s*or\s*'?1'?\s*=\s*'?1|\.\./|jsessionid=|%0a|%0d|\r|\n`)
)

// QueryParam inspects the names and values of the URL's query parameters.
type QueryParam struct {
	lib *signature.Library
}

// NewQueryParam returns a QueryParam detector.
func NewQueryParam(lib *signature.Library) *QueryParam {
	return &QueryParam{lib: lib}
}

// Name returns "query-param".
func (d *QueryParam) Name() string { return "query-param" }

// Detect implements Detector. Parameters are visited in name order.
func (d *QueryParam) Detect(in Input) []model.Finding {
	if in.URL == "" {
		return nil
	}
	u, err := url.Parse(in.URL)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	// ParseQuery returns every pair it could decode alongside the first
	// error, which is enough here.
	values, _ := url.ParseQuery(u.RawQuery)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []model.Finding
	for _, name := range names {
		if queryNamePattern.MatchString(decode.Normalize(name)) {
			out = append(out, d.finding(signature.SuspiciousParamName, name))
		}
		for _, v := range values[name] {
			if queryValuePattern.MatchString(decode.Normalize(v)) {
				out = append(out, d.finding(signature.SuspiciousParamValue, name+"="+v))
			}
		}
	}
	return out
}

func (d *QueryParam) finding(name, snippet string) model.Finding {
	return model.NewFinding(name, signature.MethodQuery, snippet, d.lib.Explain(name), 1.0)
}
