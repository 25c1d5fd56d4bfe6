package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys are attribute keys whose values are always masked. They
// cover the request headers a site config can inject and the session
// names web frameworks hand out.
var sensitiveKeys = map[string]bool{
	// Request and response headers
	"authorization":        true,
	"proxy-authorization":  true,
	"cookie":               true,
	"set-cookie":           true,
	"x-api-key":            true,
	"x-auth-token":         true,
	"x-csrf-token":         true,
	"x-xsrf-token":         true,
	"x-amz-security-token": true,

	// Anti-forgery tokens
	"csrf":                       true,
	"xsrf":                       true,
	"csrf_token":                 true,
	"csrfmiddlewaretoken":        true,
	"authenticity_token":         true,
	"__requestverificationtoken": true,

	// Framework session identifiers
	"session":           true,
	"sessionid":         true,
	"session_id":        true,
	"sid":               true,
	"jsessionid":        true,
	"phpsessid":         true,
	"asp.net_sessionid": true,
	"connect.sid":       true,

	// API credentials
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"access_token": true,
	"id_token":     true,
	"password":     true,
}

// sensitiveKeywords mark a key as sensitive when they appear anywhere in it.
// The bare "key" is excluded: it matches "primary_key" and "keyboard".
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth",
	"csrf", "xsrf", "cookie", "session", "credential",
}

// sensitiveParams are query parameter names whose values are masked inside
// URLs. The rest of the URL is kept so crawl logs stay readable.
var sensitiveParams = []string{
	"csrf", "csrf_token", "csrftoken", "_csrf", "xsrf", "xsrf_token", "_token",
	"authenticity_token", "token", "access_token", "id_token", "refresh_token",
	"session", "sessionid", "sid", "phpsessid", "jsessionid",
	"api_key", "apikey", "key", "signature", "sig", "password", "code",
}

// sensitiveParamRe matches name=value pairs for sensitiveParams after a
// query or fragment separator. The value runs to the next separator.
var sensitiveParamRe = func() *regexp.Regexp {
	names := make([]string, len(sensitiveParams))
	for i, n := range sensitiveParams {
		names[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)([?&;#](?:` + strings.Join(names, "|") + `)=)[^&;#\s"']*`)
}()

// sensitivePatterns match values that are masked whole, whatever the key.
var sensitivePatterns = []*regexp.Regexp{
	// Authorization header values
	regexp.MustCompile(`(?i)^(bearer|basic|digest|token)\s+\S+`),

	// JWTs, as session cookies or bearer payloads
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Raw Cookie header lines
	regexp.MustCompile(`(?i)^(phpsessid|jsessionid|sessionid|connect\.sid|csrftoken)=`),

	// AWS access keys leaked in pages
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue replaces sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and strips credentials from records
// before they reach it. Keys naming headers, session cookies or
// anti-forgery tokens are masked whole. URLs and errors keep their text
// with only the sensitive query values masked.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to
// slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs masks attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler nesting later attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if isSensitiveValue(v) {
			return slog.String(a.Key, MaskValue)
		}
		if masked := maskQueryParams(v); masked != v {
			return slog.String(a.Key, masked)
		}
	case slog.KindAny:
		// Transport errors quote the request URL.
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if masked := maskQueryParams(msg); masked != msg {
				return slog.String(a.Key, masked)
			}
		}
	}
	return a
}

func containsSensitiveKeyword(key string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// maskQueryParams masks the values of sensitive query parameters in s,
// leaving the rest of s untouched.
func maskQueryParams(s string) string {
	if !strings.ContainsAny(s, "?#") {
		return s
	}
	return sensitiveParamRe.ReplaceAllString(s, "${1}"+MaskValue)
}

// Options configures New.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool

	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool
}

// New returns a logger writing to w through a SecureHandler.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(handler))
}

// Discard returns a logger that drops every record. Tests use it to keep
// output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
