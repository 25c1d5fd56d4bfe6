package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/depthscan/internal/config"
	dslog "github.com/nao1215/depthscan/internal/log"
	"github.com/nao1215/depthscan/internal/report"
	"github.com/nao1215/depthscan/internal/signature"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [url...]" {
			t.Errorf("expected use 'scan [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	flags := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"depth", "d", "2"},
		{"max-pages", "p", "0"},
		{"list", "l", ""},
		{"config", "c", ""},
		{"timeout", "t", "5s"},
		{"output", "o", "."},
		{"markdown", "m", "false"},
		{"fetch-workers", "", "50"},
		{"render-workers", "", "5"},
		{"disruption-attempts", "", "3"},
		{"dashboard-addr", "", "127.0.0.1:6999"},
		{"dashboard-window", "", "5s"},
		{"no-render", "", "false"},
		{"no-classifier", "", "false"},
	}
	for _, tt := range flags {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.def {
				t.Errorf("expected default %q, got %q", tt.def, flag.DefValue)
			}
		})
	}
}

// writeConfigFile writes content to a config file in a temp directory.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".depthscan")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "defaults:\n  cookie: a=b\n")

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{
			"-c", path, "-d", "0", "--no-render", "--rate", "2.5", "--same-host",
		}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"http://example.com"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Depth != 0 || !cfg.NoRender || !cfg.SameHost || cfg.RequestsPerSecond != 2.5 {
			t.Errorf("flags not applied: %+v", cfg)
		}
		if cfg.FetchWorkers != config.DefaultFetchWorkers {
			t.Errorf("expected default fetch workers, got %d", cfg.FetchWorkers)
		}
		if got := cfg.SiteConfigs.GetSiteConfig("example.com").Cookie; got != "a=b" {
			t.Errorf("expected default cookie, got %q", got)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "http://example.com" {
			t.Errorf("unexpected seeds %v", cfg.Seeds)
		}
	})

	t.Run("seeds come from args, list and config file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		list := filepath.Join(dir, "seeds.txt")
		if err := os.WriteFile(list, []byte("# seeds\nhttp://b.test\n\nhttp://c.test\n"), 0600); err != nil {
			t.Fatal(err)
		}
		path := writeConfigFile(t, "seeds:\n  - http://d.test\n")

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "-l", list}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"http://a.test"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		want := []string{"http://a.test", "http://b.test", "http://c.test", "http://d.test"}
		if strings.Join(cfg.Seeds, ",") != strings.Join(want, ",") {
			t.Errorf("seeds = %v, want %v", cfg.Seeds, want)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"http://a.test"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("missing seed list is an error", func(t *testing.T) {
		t.Parallel()
		path := writeConfigFile(t, "")
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "-l", filepath.Join(t.TempDir(), "none.txt")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for missing seed list")
		}
	})
}

// quietConfig returns a config that scans fast and touches nothing but
// the output directory.
func quietConfig(t *testing.T, seeds ...string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Seeds = seeds
	cfg.Depth = 0
	cfg.NoRender = true
	cfg.NoClassifier = true
	cfg.NoDashboard = true
	cfg.ProbeDelayMin, cfg.ProbeDelayMax = 0, 0
	cfg.DisruptionDelayMin, cfg.DisruptionDelayMax = 0, 0
	cfg.DisruptionAttempts = 1
	cfg.FetchTimeout = 2 * time.Second
	cfg.ProbeTimeout = time.Second
	cfg.OutputDir = t.TempDir()
	cfg.DataDir = t.TempDir()
	return cfg
}

// readNodes returns the JSON report of the single results directory in base.
func readNodes(t *testing.T, base string) (string, []report.JSONNode) {
	t.Helper()
	dirs, err := filepath.Glob(filepath.Join(base, "results_*"))
	if err != nil || len(dirs) != 1 {
		t.Fatalf("expected one results directory, got %v (%v)", dirs, err)
	}
	text, err := os.ReadFile(filepath.Join(dirs[0], report.TextFile))
	if err != nil {
		t.Fatalf("failed to read text report: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dirs[0], report.JSONFile))
	if err != nil {
		t.Fatalf("failed to read JSON report: %v", err)
	}
	var nodes []report.JSONNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	return string(text), nodes
}

func TestRunScan(t *testing.T) {
	t.Parallel()

	t.Run("depth zero scans only the seed", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/next" {
				hits.Add(1)
			}
			w.Header().Set("Server", "nginx/1.10.3")
			fmt.Fprint(w, `<html><title>home</title><body><a href="/next">next</a><script>alert(1)</script></body></html>`)
		}))
		defer srv.Close()

		cfg := quietConfig(t, srv.URL)
		var out bytes.Buffer
		if err := runScan(context.Background(), cfg, dslog.Discard(), &out); err != nil {
			t.Fatalf("runScan() error = %v", err)
		}

		text, nodes := readNodes(t, cfg.OutputDir)
		if len(nodes) != 1 {
			t.Fatalf("expected 1 node, got %d", len(nodes))
		}
		if hits.Load() != 0 {
			t.Errorf("expected no request to /next, got %d", hits.Load())
		}
		node := nodes[0]
		if node.Depth != 0 || node.Status == nil || *node.Status != "200 OK" {
			t.Errorf("unexpected node %+v", node)
		}
		if node.Server != "nginx/1.10.3" {
			t.Errorf("expected server header, got %q", node.Server)
		}

		var xss bool
		for _, d := range node.Detection {
			if d.Type == signature.XSS && d.Tactic == signature.MethodPattern && d.Confidence == 1 {
				xss = true
			}
		}
		if !xss {
			t.Errorf("expected a pattern-based XSS finding, got %+v", node.Detection)
		}
		if !strings.Contains(text, "URL: "+srv.URL+"/") {
			t.Errorf("text report misses the seed:\n%s", text)
		}
		if !strings.Contains(out.String(), "Scanned 1 page(s)") {
			t.Errorf("unexpected summary:\n%s", out.String())
		}
	})

	t.Run("unreachable seed still produces a report", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		seed := srv.URL + "/"
		srv.Close()

		cfg := quietConfig(t, seed)
		if err := runScan(context.Background(), cfg, dslog.Discard(), &bytes.Buffer{}); err != nil {
			t.Fatalf("runScan() error = %v", err)
		}

		text, nodes := readNodes(t, cfg.OutputDir)
		if len(nodes) != 1 {
			t.Fatalf("expected 1 node, got %d", len(nodes))
		}
		node := nodes[0]
		if node.Error == "" || node.Status != nil {
			t.Errorf("expected fetch error, got %+v", node)
		}
		for _, d := range node.Detection {
			if d.Type != signature.ServiceDisruption {
				t.Errorf("unexpected finding %+v", d)
			}
		}
		if len(node.Detection) != 1 {
			t.Errorf("expected one disruption finding, got %d", len(node.Detection))
		}
		if !strings.Contains(text, "Error:") {
			t.Errorf("text report misses the error:\n%s", text)
		}
	})

	t.Run("busy dashboard port aborts the run", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer ln.Close()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "<html></html>")
		}))
		defer srv.Close()

		cfg := quietConfig(t, srv.URL)
		cfg.NoDashboard = false
		cfg.DashboardAddr = ln.Addr().String()
		cfg.DashboardWindow = 50 * time.Millisecond

		err = runScan(context.Background(), cfg, dslog.Discard(), &bytes.Buffer{})
		if !errors.Is(err, report.ErrDashboardBind) {
			t.Fatalf("expected ErrDashboardBind, got %v", err)
		}
		if dirs, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "results_*")); len(dirs) != 0 {
			t.Errorf("expected no results directory, got %v", dirs)
		}
	})
}
