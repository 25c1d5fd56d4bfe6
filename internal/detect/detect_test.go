package detect

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

func countSignature(findings []model.Finding, name string) int {
	n := 0
	for _, f := range findings {
		if f.Signature == name {
			n++
		}
	}
	return n
}

func TestScriptAlertIsXSSWithFullConfidence(t *testing.T) {
	t.Parallel()

	lib := signature.Default()
	in := Input{Body: "<script>alert(1)</script>"}

	tests := []struct {
		name     string
		detector Detector
		method   string
	}{
		{name: "body pattern", detector: NewBodyPattern(lib, 2), method: signature.MethodPattern},
		{name: "dom", detector: NewDOM(lib), method: signature.MethodDOM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			found := false
			for _, f := range tt.detector.Detect(in) {
				if f.Signature != signature.XSS {
					continue
				}
				found = true
				if f.Confidence != 1.0 {
					t.Errorf("confidence = %v, want 1.0", f.Confidence)
				}
				if f.Method != tt.method {
					t.Errorf("method = %q, want %q", f.Method, tt.method)
				}
			}
			if !found {
				t.Fatalf("no XSS finding for %q", in.Body)
			}
		})
	}
}

func TestBodyPatternDecodesNestedEncoding(t *testing.T) {
	t.Parallel()

	d := NewBodyPattern(signature.Default(), 2)
	got := d.Detect(Input{Body: "q=%253Cscript%253Ealert(1)%253C/script%253E"})
	if countSignature(got, signature.XSS) == 0 {
		t.Fatalf("double encoded script not detected: %+v", got)
	}
}

func TestBodyPatternCleanPage(t *testing.T) {
	t.Parallel()

	d := NewBodyPattern(signature.Default(), 2)
	if got := d.Detect(Input{Body: "Welcome to the shop. We open at nine."}); len(got) != 0 {
		t.Errorf("Detect() = %+v, want no findings", got)
	}
}

func TestDOMEventHandlerAttribute(t *testing.T) {
	t.Parallel()

	d := NewDOM(signature.Default())
	got := d.Detect(Input{Body: `<div><img src="x" ONERROR="steal()"></div>`})
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d findings, want 1: %+v", len(got), got)
	}
	if got[0].Snippet != "onerror=steal()" {
		t.Errorf("snippet = %q, want %q", got[0].Snippet, "onerror=steal()")
	}
}

func TestDOMIgnoresHarmlessScripts(t *testing.T) {
	t.Parallel()

	d := NewDOM(signature.Default())
	if got := d.Detect(Input{Body: "<script>var x = 1;</script><p>text</p>"}); len(got) != 0 {
		t.Errorf("Detect() = %+v, want none", got)
	}
}

func TestHeaderMissingSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("Strict-Transport-Security", "max-age=31536000")

	got := NewHeader(signature.Default()).Detect(Input{Headers: h})
	if n := countSignature(got, signature.MissingSecurityHeaders); n != 2 {
		t.Fatalf("missing header findings = %d, want 2: %+v", n, got)
	}

	var snippets []string
	for _, f := range got {
		snippets = append(snippets, f.Snippet)
	}
	for _, want := range []string{"Content-Security-Policy", "X-Frame-Options"} {
		if !slices.Contains(snippets, want) {
			t.Errorf("no finding for %s in %v", want, snippets)
		}
	}
}

func TestHeaderCaseInsensitiveKeys(t *testing.T) {
	t.Parallel()

	h := http.Header{
		"content-security-policy":   {"default-src 'self'"},
		"x-content-type-options":    {"nosniff"},
		"x-frame-options":           {"DENY"},
		"x-xss-protection":          {"1"},
		"strict-transport-security": {"max-age=1"},
	}
	if got := NewHeader(signature.Default()).Detect(Input{Headers: h}); len(got) != 0 {
		t.Errorf("Detect() = %+v, want none", got)
	}
}

func TestHeaderServerAndCookies(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	for _, name := range signature.RequiredSecurityHeaders() {
		h.Set(name, "x")
	}
	h.Set("Server", "Apache/2.2.14 (Ubuntu)")
	h.Add("Set-Cookie", "sid=1; Path=/")
	h.Add("Set-Cookie", "pref=dark; Secure; HttpOnly")

	got := NewHeader(signature.Default()).Detect(Input{Headers: h})
	if n := countSignature(got, signature.OutdatedServer); n != 1 {
		t.Errorf("outdated server findings = %d, want 1", n)
	}
	if n := countSignature(got, signature.InsecureCookie); n != 1 {
		t.Fatalf("insecure cookie findings = %d, want 1: %+v", n, got)
	}
	for _, f := range got {
		if f.Signature == signature.InsecureCookie && f.Snippet != "sid=1; Path=/" {
			t.Errorf("cookie snippet = %q", f.Snippet)
		}
	}
}

func TestHeaderNilHeaders(t *testing.T) {
	t.Parallel()

	if got := NewHeader(signature.Default()).Detect(Input{Body: "x"}); got != nil {
		t.Errorf("Detect() = %+v, want nil", got)
	}
}

func TestFormCSRF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "post without token",
			body: `<form method="post" action="/save"><input name="title"></form>`,
			want: 1,
		},
		{
			name: "post with csrf field",
			body: `<form method="post" action="/save"><input name="title"><input type="text" name="csrf" value="abc"></form>`,
			want: 0,
		},
		{
			name: "post with csrf_token field",
			body: `<FORM METHOD='POST'><input name='csrf_token'></FORM>`,
			want: 0,
		},
		{
			name: "get form",
			body: `<form method="get"><input name="q"></form>`,
			want: 0,
		},
	}

	d := NewForm(signature.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := d.Detect(Input{Body: tt.body})
			if n := countSignature(got, signature.CSRFMissing); n != tt.want {
				t.Errorf("CSRF findings = %d, want %d: %+v", n, tt.want, got)
			}
		})
	}
}

func TestFormSecretsAndFields(t *testing.T) {
	t.Parallel()

	d := NewForm(signature.Default())

	got := d.Detect(Input{Body: `<form action="/login"><input type="password" name="pw"></form>`})
	if n := countSignature(got, signature.FormGETSensitive); n != 1 {
		t.Errorf("GET with password findings = %d, want 1: %+v", n, got)
	}

	got = d.Detect(Input{Body: `<form method=post><input name="cmd"><input name="csrf"></form>`})
	if n := countSignature(got, signature.SuspiciousFormFields); n != 1 {
		t.Errorf("suspicious field findings = %d, want 1: %+v", n, got)
	}
	if n := countSignature(got, signature.CSRFMissing); n != 0 {
		t.Errorf("CSRF findings = %d, want 0", n)
	}
}

func TestFormSnippetIsClipped(t *testing.T) {
	t.Parallel()

	body := `<form method="post">` + strings.Repeat("a", 400) + `</form>`
	got := NewForm(signature.Default()).Detect(Input{Body: body})
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d findings, want 1", len(got))
	}
	if !strings.HasSuffix(got[0].Snippet, "...") || len([]rune(got[0].Snippet)) != model.SnippetLimit+3 {
		t.Errorf("snippet not clipped: %q", got[0].Snippet)
	}
}

func TestQueryParam(t *testing.T) {
	t.Parallel()

	d := NewQueryParam(signature.Default())
	got := d.Detect(Input{URL: "http://example.com/search?cmd=ls&id=1&q=%3Cscript%3E"})
	if len(got) != 2 {
		t.Fatalf("Detect() returned %d findings, want 2: %+v", len(got), got)
	}
	if got[0].Signature != signature.SuspiciousParamName || got[0].Snippet != "cmd" {
		t.Errorf("first finding = %+v", got[0])
	}
	if got[1].Signature != signature.SuspiciousParamValue || got[1].Snippet != "q=<script>" {
		t.Errorf("second finding = %+v", got[1])
	}

	for _, u := range []string{"", "http://example.com/", "http://example.com/?page=2"} {
		if got := d.Detect(Input{URL: u}); len(got) != 0 {
			t.Errorf("Detect(%q) = %+v, want none", u, got)
		}
	}
}

func TestExtractJSFunctions(t *testing.T) {
	t.Parallel()

	body := `<script type="text/javascript">
  function foo(a, b) { return a + b; }
  var x = 1;
  function bar() {}
</script><p>function notInScript() {}</p>`

	got := ExtractJSFunctions(body)
	want := []string{"function foo(a, b) { return a + b; }", "function bar() {}"}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractJSFunctions() = %q, want %q", got, want)
	}
}

func TestInlineScripts(t *testing.T) {
	t.Parallel()

	got := InlineScripts("<script> a() </script><script src=x.js></script><script>b()</script>")
	if want := []string{"a()", "b()"}; !slices.Equal(got, want) {
		t.Errorf("InlineScripts() = %q, want %q", got, want)
	}
}

type panicDetector struct{}

func (panicDetector) Name() string                 { return "panic" }
func (panicDetector) Detect(Input) []model.Finding { panic("boom") }

func TestSetRecoversFromPanics(t *testing.T) {
	t.Parallel()

	s := NewSet(signature.Default())
	s.Register(panicDetector{})

	got := s.Run(Input{Body: "<script>alert(1)</script>"})
	if countSignature(got, signature.XSS) == 0 {
		t.Errorf("findings of healthy detectors were lost: %+v", got)
	}
}

func TestNewSetToggles(t *testing.T) {
	t.Parallel()

	lib := signature.Default()
	all := NewSet(lib).Names()
	if want := []string{"body-pattern", "dom", "header", "form", "query-param"}; !slices.Equal(all, want) {
		t.Errorf("Names() = %v, want %v", all, want)
	}

	trimmed := NewSet(lib, WithHeaders(false), WithForms(false)).Names()
	if want := []string{"body-pattern", "dom", "query-param"}; !slices.Equal(trimmed, want) {
		t.Errorf("Names() = %v, want %v", trimmed, want)
	}

	passive := NewSet(lib, WithQueryParams(false)).Names()
	if want := []string{"body-pattern", "dom", "header", "form"}; !slices.Equal(passive, want) {
		t.Errorf("Names() = %v, want %v", passive, want)
	}
}
