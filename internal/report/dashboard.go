package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/nao1215/depthscan/internal/model"
)

const (
	// DefaultDashboardAddr is the local address the dashboard binds.
	DefaultDashboardAddr = "127.0.0.1:6999"

	// DefaultDashboardWindow is how long each layer page is served.
	DefaultDashboardWindow = 5 * time.Second

	// dashboardShutdownTimeout bounds the graceful shutdown of the server.
	dashboardShutdownTimeout = 2 * time.Second
)

const layerTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>depthscan depth {{ .Depth }}</title>
<style>
body { font-family: Arial, sans-serif; margin: 2em; }
.result { margin-bottom: 10px; padding: 5px; border-bottom: 1px solid #ccc; }
.error { color: #b00; }
.meta { color: #555; font-size: 0.9em; }
</style></head><body>
<h1>Results for depth {{ .Depth }}</h1>
<p class="meta">{{ len .Nodes }} page(s), {{ .Findings }} finding(s), resolved in {{ .Duration }}</p>
{{- range $i, $n := .Nodes }}
<div class="result"><b>({{ add1 $i }}) {{ $n.URL }}</b>
<div class="meta">{{ $n.Server | default "Unknown" }} {{ $n.Status }}</div>
{{- with $n.ErrorText }}<div class="error">Error: {{ . }}</div>{{ end }}
{{- if $n.Findings }}<ul>
{{- range $n.Findings }}
<li>{{ .Signature }} - {{ .Explanation }} <span class="meta">{{ .Method }}: {{ trunc 80 .Snippet }}</span></li>
{{- end }}
</ul>{{ end }}
{{- with $n.Flags }}<div>Flags: {{ join ", " . }}</div>{{ end }}
</div>
{{- end }}
</body></html>
`

// layerPage is the data rendered by layerTemplate.
type layerPage struct {
	Depth    int
	Nodes    []*model.CrawlNode
	Findings int
	Duration time.Duration
}

// Dashboard serves a read-only HTML page for one layer at a time.
type Dashboard struct {
	addr     string
	window   time.Duration
	metrics  http.Handler
	onListen func(addr string)
	logger   *slog.Logger
	tmpl     *template.Template
}

// DashboardOption configures a Dashboard.
type DashboardOption func(*Dashboard)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) DashboardOption {
	return func(d *Dashboard) { d.metrics = h }
}

// WithOnListen sets a callback invoked with the bound address once the
// server is accepting connections.
func WithOnListen(fn func(addr string)) DashboardOption {
	return func(d *Dashboard) { d.onListen = fn }
}

// WithDashboardLogger sets the logger.
func WithDashboardLogger(logger *slog.Logger) DashboardOption {
	return func(d *Dashboard) { d.logger = logger }
}

// NewDashboard creates a Dashboard bound to addr for window per layer.
func NewDashboard(addr string, window time.Duration, opts ...DashboardOption) *Dashboard {
	if addr == "" {
		addr = DefaultDashboardAddr
	}
	if window <= 0 {
		window = DefaultDashboardWindow
	}
	d := &Dashboard{
		addr:   addr,
		window: window,
		logger: slog.Default(),
		tmpl:   template.Must(template.New("layer").Funcs(sprig.FuncMap()).Parse(layerTemplate)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render returns the HTML page of layer.
func (d *Dashboard) Render(layer *model.Layer) ([]byte, error) {
	var buf bytes.Buffer
	err := d.tmpl.Execute(&buf, layerPage{
		Depth:    layer.Depth,
		Nodes:    layer.Nodes,
		Findings: layer.FindingCount(),
		Duration: layer.Duration.Round(time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render layer %d: %w", layer.Depth, err)
	}
	return buf.Bytes(), nil
}

// Publish serves the page of layer for the dashboard window and returns
// after the server has shut down. It returns early when ctx is done. A
// failure to bind the address returns ErrDashboardBind.
func (d *Dashboard) Publish(ctx context.Context, layer *model.Layer) error {
	page, err := d.Render(layer)
	if err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", d.addr)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrDashboardBind, d.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page) //nolint:errcheck // client went away
	})
	if d.metrics != nil {
		mux.Handle("GET /metrics", d.metrics)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: dashboardShutdownTimeout,
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dashboardShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("dashboard shutdown failed", "error", err)
			_ = srv.Close() //nolint:errcheck // best effort after a failed shutdown
		}
	}()

	addr := ln.Addr().String()
	d.logger.Info("serving layer results",
		"depth", layer.Depth,
		"url", "http://"+addr+"/",
		"window", d.window,
	)
	if d.onListen != nil {
		d.onListen(addr)
	}

	timer := time.NewTimer(d.window)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			d.logger.Warn("dashboard stopped early", "error", err)
		}
	}
	return nil
}
