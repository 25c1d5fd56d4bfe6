package signature

// Names of signatures raised by detectors other than the body-pattern
// detector. They are exported so detectors and reports share one spelling.
const (
	XSS                    = "XSS"
	SQLInjection           = "SQL Injection"
	MissingSecurityHeaders = "Missing Security Headers"
	OutdatedServer         = "Outdated or Insecure Server"
	InsecureCookie         = "Cookies lack 'Secure'/'HttpOnly'"
	SuspiciousParamName    = "Suspicious param name"
	SuspiciousParamValue   = "Suspicious param value"
	FormGETSensitive       = "Form uses GET with password/hidden"
	SuspiciousFormFields   = "Suspicious form fields (cmd/shell/token)"
	CSRFMissing            = "POST form without CSRF token"
	ServiceDisruption      = "Service Disruption"
	RenderError            = "Render Error"
)

// NoExplanation is returned by Explain for unknown names.
const NoExplanation = "No explanation"

// Detection method labels recorded on findings.
const (
	MethodPattern    = "pattern-based"
	MethodDOM        = "DOM-based"
	MethodHeader     = "header-based"
	MethodForm       = "form-based"
	MethodQuery      = "query-param"
	MethodBrowser    = "browser-based"
	MethodDisruption = "frequent-request detection"
	// MethodClassifierFormat is formatted with the model probability.
	MethodClassifierFormat = "classifier (score=%.3f)"
)

// requiredSecurityHeaders lists the response headers whose absence is
// reported, one finding per missing header.
var requiredSecurityHeaders = []string{
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"X-XSS-Protection",
	"Strict-Transport-Security",
}

// RequiredSecurityHeaders returns a copy of the required header list.
func RequiredSecurityHeaders() []string {
	out := make([]string, len(requiredSecurityHeaders))
	copy(out, requiredSecurityHeaders)
	return out
}
