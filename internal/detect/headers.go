package detect

import (
	"net/http"
	"strings"

	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

// Header inspects response headers: one finding per missing required
// security header, an outdated Server banner, and cookies set without both
// the Secure and HttpOnly flags.
type Header struct {
	lib      *signature.Library
	required []string
}

// NewHeader returns a Header detector.
func NewHeader(lib *signature.Library) *Header {
	return &Header{lib: lib, required: signature.RequiredSecurityHeaders()}
}

// Name returns "header".
func (d *Header) Name() string { return "header" }

// Detect implements Detector. It returns nothing when in.Headers is nil.
func (d *Header) Detect(in Input) []model.Finding {
	if in.Headers == nil {
		return nil
	}

	var out []model.Finding
	for _, name := range d.required {
		if len(headerValues(in.Headers, name)) == 0 {
			out = append(out, d.finding(signature.MissingSecurityHeaders, name))
		}
	}

	for _, server := range headerValues(in.Headers, "Server") {
		if _, ok := d.lib.OutdatedServer(server); ok {
			out = append(out, d.finding(signature.OutdatedServer, server))
		}
	}

	for _, cookie := range headerValues(in.Headers, "Set-Cookie") {
		lower := strings.ToLower(cookie)
		if !strings.Contains(lower, "secure") || !strings.Contains(lower, "httponly") {
			out = append(out, d.finding(signature.InsecureCookie, cookie))
		}
	}
	return out
}

func (d *Header) finding(name, snippet string) model.Finding {
	return model.NewFinding(name, signature.MethodHeader, snippet, d.lib.Explain(name), 1.0)
}

// headerValues returns the values of name with a case-insensitive key
// match, so maps built without canonical keys are handled too.
func headerValues(h http.Header, name string) []string {
	if v, ok := h[http.CanonicalHeaderKey(name)]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}
