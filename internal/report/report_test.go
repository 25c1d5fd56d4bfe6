package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/depthscan/internal/crawler"
	"github.com/nao1215/depthscan/internal/model"
)

// createTestRun creates a run with one healthy and one failed node.
func createTestRun() *Run {
	ok := &model.CrawlNode{
		URL:    "http://shop.test/",
		Depth:  0,
		Server: "Apache/2.2.8",
		Fetch:  &model.FetchResult{StatusCode: 200, Reason: "OK"},
		Render: &model.RenderResult{Flags: []string{"CTF{first}"}},
		Findings: []model.Finding{
			model.NewFinding("XSS", "pattern-based", "<script>alert(1)</script>", "Cross-site scripting", 1),
			model.NewFinding("SQL Injection", "classifier (score=0.876)", "select *\nfrom users", "SQL injection", 0.87654),
		},
		JSFunctions: []string{"function hello() { return 1 }"},
		Links:       []string{"http://shop.test/cart"},
	}
	failed := &model.CrawlNode{
		URL:      "http://shop.test/cart",
		Depth:    1,
		Server:   model.UnknownServer,
		FetchErr: errors.New("connection refused"),
		Findings: []model.Finding{
			model.NewFinding("Service Disruption", "frequent-request detection", "Exception", "Service disruption", 1),
		},
	}
	return &Run{
		Seeds:      []string{"http://shop.test/"},
		MaxDepth:   2,
		Started:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Finished:   time.Date(2026, 1, 2, 3, 4, 9, 0, time.UTC),
		Nodes:      []*model.CrawlNode{ok, failed},
		Edges:      []crawler.Edge{{From: "http://shop.test/", To: "http://shop.test/cart"}},
		Discovered: 2,
	}
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewTextWriter(&buf).Write(createTestRun()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Server causing detection: Apache/2.2.8\nURL: http://shop.test/\n  Status: 200 OK\n",
		"Server causing detection: Unknown\nURL: http://shop.test/cart\n  Error: connection refused\n",
		"  JS Functions:\n    function hello() { return 1 }\n",
		"  Flags: CTF{first}\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var findingLines int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "| Tactic: ") {
			findingLines++
		}
	}
	if findingLines != 3 {
		t.Errorf("expected one line per finding (3), got %d", findingLines)
	}
	if !strings.Contains(out, "Snippet: select * from users") {
		t.Error("multi-line snippets should be collapsed onto one line")
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var nodes []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &nodes); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	first := nodes[0]
	if first["status"] != "200 OK" || first["server"] != "Apache/2.2.8" || first["error"] != "" {
		t.Errorf("unexpected first node: %v", first)
	}
	detections := first["detections"].([]any)
	if got := detections[1].(map[string]any)["confidence"]; got != 0.877 {
		t.Errorf("confidence = %v, want 0.877", got)
	}
	if got := detections[0].(map[string]any)["tactic"]; got != "pattern-based" {
		t.Errorf("tactic = %v", got)
	}

	second := nodes[1]
	if second["status"] != nil {
		t.Errorf("failed node status = %v, want null", second["status"])
	}
	if second["error"] != "connection refused" {
		t.Errorf("error = %v", second["error"])
	}
	for _, key := range []string{"extracted_js_functions", "found_flags", "links"} {
		if v, ok := second[key].([]any); !ok || len(v) != 0 {
			t.Errorf("%s = %v, want []", key, second[key])
		}
	}
}

func TestJSONWriterEmptyRun(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(&Run{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty run = %q, want []", got)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# depthscan Report",
		"## Signature Summary",
		"```mermaid",
		"pie",
		"### http://shop.test/cart",
		"## Link Graph",
		"http://shop.test/cart",
		"0.877",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRunCountBySignature(t *testing.T) {
	t.Parallel()

	run := createTestRun()
	run.Nodes[1].Findings = append(run.Nodes[1].Findings, model.NewFinding("XSS", "DOM-based", "x", "", 1))

	counts := run.CountBySignature()
	if len(counts) != 3 || counts[0].Signature != "XSS" || counts[0].Count != 2 {
		t.Errorf("CountBySignature() = %+v", counts)
	}
	if counts[1].Signature != "SQL Injection" {
		t.Errorf("ties should sort by name: %+v", counts)
	}
	if run.FindingCount() != 4 {
		t.Errorf("FindingCount() = %d, want 4", run.FindingCount())
	}
}

func TestNewRun(t *testing.T) {
	t.Parallel()

	graph := crawler.NewLinkGraph()
	graph.AddEdge("a", "b")
	result := &crawler.Result{
		Nodes:      []*model.CrawlNode{{URL: "a"}},
		Graph:      graph,
		Discovered: 2,
	}

	run := NewRun([]string{"a"}, 3, result)
	if len(run.Nodes) != 1 || len(run.Edges) != 1 || run.Discovered != 2 || run.MaxDepth != 3 {
		t.Errorf("unexpected run %+v", run)
	}
	if empty := NewRun(nil, 0, nil); len(empty.Nodes) != 0 {
		t.Error("nil result should give an empty run")
	}
}

func TestNewOutputDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "out")
	now := time.Date(2026, 10, 14, 9, 30, 1, 0, time.UTC)

	first, err := NewOutputDir(base, now)
	if err != nil {
		t.Fatalf("NewOutputDir() error = %v", err)
	}
	second, err := NewOutputDir(base, now)
	if err != nil {
		t.Fatalf("NewOutputDir() error = %v", err)
	}
	if first == second {
		t.Fatalf("directories created in the same second collide: %s", first)
	}

	pattern := regexp.MustCompile(`^results_20261014_093001_[0-9a-f]{8}$`)
	for _, dir := range []string{first, second} {
		if !pattern.MatchString(filepath.Base(dir)) {
			t.Errorf("unexpected directory name %s", filepath.Base(dir))
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s is not a directory: %v", dir, err)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	t.Parallel()

	t.Run("writes text and json", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		artifacts, err := WriteArtifacts(dir, createTestRun(), ArtifactOptions{})
		if err != nil {
			t.Fatalf("WriteArtifacts() error = %v", err)
		}
		for _, path := range []string{artifacts.Text, artifacts.JSON} {
			data, err := os.ReadFile(path)
			if err != nil || len(data) == 0 {
				t.Errorf("artifact %s missing or empty: %v", path, err)
			}
		}
		if artifacts.Markdown != "" {
			t.Error("markdown should be disabled by default")
		}
		if _, err := os.Stat(filepath.Join(dir, MarkdownFile)); !os.IsNotExist(err) {
			t.Error("markdown file should not exist")
		}
	})

	t.Run("writes markdown when enabled", func(t *testing.T) {
		t.Parallel()

		artifacts, err := WriteArtifacts(t.TempDir(), createTestRun(), ArtifactOptions{Markdown: true})
		if err != nil {
			t.Fatalf("WriteArtifacts() error = %v", err)
		}
		if _, err := os.Stat(artifacts.Markdown); err != nil {
			t.Errorf("markdown artifact missing: %v", err)
		}
	})

	t.Run("empty run still writes both files", func(t *testing.T) {
		t.Parallel()

		artifacts, err := WriteArtifacts(t.TempDir(), &Run{}, ArtifactOptions{})
		if err != nil {
			t.Fatalf("WriteArtifacts() error = %v", err)
		}
		data, err := os.ReadFile(artifacts.JSON)
		if err != nil || strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("JSON = %q, %v", data, err)
		}
	})

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "nope")
		if _, err := WriteArtifacts(missing, &Run{}, ArtifactOptions{}); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLayer() *model.Layer {
	run := createTestRun()
	return &model.Layer{Depth: 1, Nodes: run.Nodes, Duration: 1500 * time.Millisecond}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestDashboardRender(t *testing.T) {
	t.Parallel()

	d := NewDashboard("", 0, WithDashboardLogger(discardLogger()))
	page, err := d.Render(testLayer())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := string(page)
	for _, want := range []string{
		"Results for depth 1",
		"(1) http://shop.test/",
		"(2) http://shop.test/cart",
		"Error: connection refused",
		"Flags: CTF{first}",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)") {
		t.Error("snippets must be escaped")
	}
}

func TestDashboardPublish(t *testing.T) {
	t.Parallel()

	t.Run("serves during the window and closes after", func(t *testing.T) {
		t.Parallel()

		var (
			addr    string
			status  int
			body    string
			metrics string
		)
		metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "depthscan_nodes_total 2\n")
		})
		d := NewDashboard("127.0.0.1:0", 200*time.Millisecond,
			WithDashboardLogger(discardLogger()),
			WithMetricsHandler(metricsHandler),
			WithOnListen(func(a string) {
				addr = a
				status, body = get(t, "http://"+a+"/")
				_, metrics = get(t, "http://"+a+"/metrics")
			}))

		if err := d.Publish(context.Background(), testLayer()); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if status != http.StatusOK || !strings.Contains(body, "Results for depth 1") {
			t.Errorf("page status %d body %q", status, body)
		}
		if !strings.Contains(metrics, "depthscan_nodes_total") {
			t.Errorf("metrics = %q", metrics)
		}

		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			t.Error("dashboard port should be closed after Publish returns")
		}
	})

	t.Run("bound port is a run-level error", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		defer ln.Close()

		d := NewDashboard(ln.Addr().String(), 50*time.Millisecond, WithDashboardLogger(discardLogger()))
		err = d.Publish(context.Background(), testLayer())
		if !errors.Is(err, ErrDashboardBind) {
			t.Fatalf("Publish() error = %v, want ErrDashboardBind", err)
		}
	})

	t.Run("canceled context ends the window early", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		d := NewDashboard("127.0.0.1:0", time.Minute,
			WithDashboardLogger(discardLogger()),
			WithOnListen(func(string) { cancel() }))

		start := time.Now()
		if err := d.Publish(ctx, testLayer()); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Second {
			t.Errorf("Publish took %v after cancel", elapsed)
		}
	})
}
