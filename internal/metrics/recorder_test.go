package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/depthscan/internal/model"
)

func TestRecorderNodeDone(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	start := time.Now()
	r.NodeDone(&model.CrawlNode{
		URL:   "http://a.test/",
		Depth: 0,
		Findings: []model.Finding{
			{Signature: "XSS"},
			{Signature: "XSS"},
			{Signature: "SQL Injection"},
		},
		Render:     &model.RenderResult{Flags: []string{"CTF{a}"}},
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
	})
	r.NodeDone(&model.CrawlNode{
		URL:      "http://b.test/",
		Depth:    1,
		FetchErr: errors.New("dial tcp: connection refused"),
	})

	if got := testutil.ToFloat64(r.nodesTotal.WithLabelValues("0", "ok")); got != 1 {
		t.Errorf("ok nodes at depth 0 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.nodesTotal.WithLabelValues("1", "error")); got != 1 {
		t.Errorf("error nodes at depth 1 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.findingsTotal.WithLabelValues("XSS")); got != 2 {
		t.Errorf("XSS findings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues(ErrorRefused)); got != 1 {
		t.Errorf("refused errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.flagsTotal); got != 1 {
		t.Errorf("flags = %v, want 1", got)
	}
}

func TestRecorderLayerDone(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.LayerDone(&model.Layer{Depth: 2, Nodes: make([]*model.CrawlNode, 3), Duration: time.Second})

	if got := testutil.ToFloat64(r.layerNodes.WithLabelValues("2")); got != 3 {
		t.Errorf("layer nodes = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(r.layerDuration); got != 1 {
		t.Errorf("layer duration series = %d, want 1", got)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", fmt.Errorf("get: %w", context.Canceled), ErrorCanceled},
		{"deadline", context.DeadlineExceeded, ErrorTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.test"}, ErrorDNS},
		{"net timeout", fmt.Errorf("read: %w", timeoutError{}), ErrorTimeout},
		{"refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), ErrorRefused},
		{"other", errors.New("tls: bad certificate"), ErrorOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecorderHandler(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.NodeDone(&model.CrawlNode{URL: "http://a.test/", Findings: []model.Finding{{Signature: "XSS"}}})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `depthscan_findings_total{signature="XSS"} 1`) {
		t.Errorf("metrics output missing findings counter:\n%s", body)
	}
}
