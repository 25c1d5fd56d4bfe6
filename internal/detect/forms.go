package detect

import (
	"regexp"
	"strings"

	"github.com/nao1215/depthscan/internal/decode"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

var (
	formPattern       = regexp.MustCompile(`(?is)<form\b.*?</form>`)
	formMethodPattern = regexp.MustCompile(`(?is)method\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>]+))`)
	formSecretInput   = regexp.MustCompile(`(?i)type\s*=\s*["']?(?:password|hidden)["'\s/>]`)
	formShellField    = regexp.MustCompile(`(?i)name\s*=\s*["']?(?:cmd|shell|token)["'\s/>]`)
	formCSRFField     = regexp.MustCompile(`(?i)name\s*=\s*["']?(?:csrf|csrf_token)["'\s/>]`)
)

// Form inspects every <form> block of the normalized body.
type Form struct {
	lib *signature.Library
}

// NewForm returns a Form detector.
func NewForm(lib *signature.Library) *Form {
	return &Form{lib: lib}
}

// Name returns "form".
func (d *Form) Name() string { return "form" }

// Detect implements Detector.
//
// A form without a method attribute submits with GET, so it is checked for
// secret inputs like an explicit GET form.
func (d *Form) Detect(in Input) []model.Finding {
	if in.Body == "" {
		return nil
	}

	var out []model.Finding
	for _, form := range formPattern.FindAllString(decode.Normalize(in.Body), -1) {
		method := formMethod(form)
		if method == "get" && formSecretInput.MatchString(form) {
			out = append(out, d.finding(signature.FormGETSensitive, form))
		}
		if formShellField.MatchString(form) {
			out = append(out, d.finding(signature.SuspiciousFormFields, form))
		}
		if method == "post" && !formCSRFField.MatchString(form) {
			out = append(out, d.finding(signature.CSRFMissing, form))
		}
	}
	return out
}

func (d *Form) finding(name, form string) model.Finding {
	return model.NewFinding(name, signature.MethodForm, form, d.lib.Explain(name), 1.0)
}

// formMethod returns the lowercased method of the form's first method
// attribute, or "get" when there is none.
func formMethod(form string) string {
	m := formMethodPattern.FindStringSubmatch(form)
	if m == nil {
		return "get"
	}
	for _, v := range m[1:] {
		if v != "" {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	return "get"
}
