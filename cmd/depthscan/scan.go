package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/classify"
	"github.com/nao1215/depthscan/internal/config"
	"github.com/nao1215/depthscan/internal/crawler"
	"github.com/nao1215/depthscan/internal/fetch"
	dslog "github.com/nao1215/depthscan/internal/log"
	"github.com/nao1215/depthscan/internal/metrics"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/pipeline"
	"github.com/nao1215/depthscan/internal/probe"
	"github.com/nao1215/depthscan/internal/render"
	"github.com/nao1215/depthscan/internal/report"
	"github.com/nao1215/depthscan/internal/signature"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Crawl and scan web applications for vulnerabilities",
		Long: `Scan crawls from the given seed URLs breadth-first, one depth layer at a
time, and checks every page it reaches for:
- Reflected script injection, SQL injection and command injection
- Path traversal, remote file inclusion and open redirects
- Missing security headers, outdated servers and weak cookies
- Forms without CSRF protection and suspicious query parameters

Each page is fetched over HTTP and, when Chrome or Chromium is installed,
rendered headless. Active probes inject payloads into the query string and a
short burst of requests checks whether the service stays up.

After each layer its results are served on a local dashboard for a few
seconds. At the end a text and a JSON report are written into a fresh
results_<timestamp> directory.

Examples:
  # Scan one site two layers deep
  depthscan scan https://shop.example.com

  # Scan only the seed page
  depthscan scan --depth 0 https://shop.example.com/login

  # Read seeds from a file and stay on their hosts
  depthscan scan --list seeds.txt --same-host

  # Skip the browser and the dashboard
  depthscan scan --no-render --no-dashboard https://shop.example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Crawl flags
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Maximum crawl depth (0 scans only the seeds)")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages to scan (0 means unlimited)")
	cmd.Flags().Bool("same-host", false,
		"Only follow links to the hosts of the seed URLs")
	cmd.Flags().StringP("list", "l", "",
		"File with one seed URL per line")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .depthscan in current or home directory)")

	// Worker and timeout flags
	cmd.Flags().Int("fetch-workers", config.DefaultFetchWorkers,
		"Number of concurrent HTTP fetch workers")
	cmd.Flags().Int("render-workers", config.DefaultRenderWorkers,
		"Number of concurrent browser workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each page fetch")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout for each active probe request")
	cmd.Flags().Duration("render-timeout", config.DefaultRenderTimeout,
		"Timeout for each browser render")

	// Probe flags
	cmd.Flags().Duration("probe-delay-min", config.DefaultProbeDelayMin,
		"Minimum pause between payload requests")
	cmd.Flags().Duration("probe-delay-max", config.DefaultProbeDelayMax,
		"Maximum pause between payload requests")
	cmd.Flags().Int("disruption-attempts", config.DefaultDisruptionAttempts,
		"Requests sent per page to detect service disruption (0 disables)")
	cmd.Flags().Duration("disruption-delay-min", config.DefaultDisruptionDelayMin,
		"Minimum pause between disruption requests")
	cmd.Flags().Duration("disruption-delay-max", config.DefaultDisruptionDelayMax,
		"Maximum pause between disruption requests")
	cmd.Flags().String("payloads", "",
		"File with one probe payload per line (replaces the built-in payloads)")

	// Detection flags
	cmd.Flags().Int("detection-limit", config.DefaultDetectionLimit,
		"Number of body characters inspected by the detectors")
	cmd.Flags().Int("decode-passes", config.DefaultDecodePasses,
		"Number of decode passes before pattern matching")
	cmd.Flags().Bool("no-headers", false, "Disable the security header checks")
	cmd.Flags().Bool("no-forms", false, "Disable the form checks")
	cmd.Flags().Bool("no-render", false, "Disable headless browser rendering")
	cmd.Flags().Bool("no-fill-forms", false, "Do not fill and submit forms in the browser")
	cmd.Flags().Bool("no-classifier", false, "Disable the trained classifiers")

	// Transport flags
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across all workers (0 means unlimited)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:9050)")
	cmd.Flags().String("browser", "",
		"Path to the Chrome or Chromium executable")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Base directory for the results directory")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write a Markdown report")
	cmd.Flags().String("dashboard-addr", config.DefaultDashboardAddr,
		"Address of the per-layer dashboard")
	cmd.Flags().Duration("dashboard-window", config.DefaultDashboardWindow,
		"How long each layer is served on the dashboard")
	cmd.Flags().Bool("no-dashboard", false, "Disable the per-layer dashboard")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := dslog.New(cmd.ErrOrStderr(), dslog.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout())
}

// getBoolFlag retrieves a boolean flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags, the seed list and
// the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Depth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.SameHost, err = flags.GetBool("same-host"); err != nil {
		return nil, err
	}
	if cfg.FetchWorkers, err = flags.GetInt("fetch-workers"); err != nil {
		return nil, err
	}
	if cfg.RenderWorkers, err = flags.GetInt("render-workers"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = flags.GetDuration("probe-timeout"); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = flags.GetDuration("render-timeout"); err != nil {
		return nil, err
	}
	if cfg.ProbeDelayMin, err = flags.GetDuration("probe-delay-min"); err != nil {
		return nil, err
	}
	if cfg.ProbeDelayMax, err = flags.GetDuration("probe-delay-max"); err != nil {
		return nil, err
	}
	if cfg.DisruptionAttempts, err = flags.GetInt("disruption-attempts"); err != nil {
		return nil, err
	}
	if cfg.DisruptionDelayMin, err = flags.GetDuration("disruption-delay-min"); err != nil {
		return nil, err
	}
	if cfg.DisruptionDelayMax, err = flags.GetDuration("disruption-delay-max"); err != nil {
		return nil, err
	}
	if cfg.PayloadsFile, err = flags.GetString("payloads"); err != nil {
		return nil, err
	}
	if cfg.DetectionLimit, err = flags.GetInt("detection-limit"); err != nil {
		return nil, err
	}
	if cfg.DecodePasses, err = flags.GetInt("decode-passes"); err != nil {
		return nil, err
	}
	if cfg.NoHeaders, err = flags.GetBool("no-headers"); err != nil {
		return nil, err
	}
	if cfg.NoForms, err = flags.GetBool("no-forms"); err != nil {
		return nil, err
	}
	if cfg.NoRender, err = flags.GetBool("no-render"); err != nil {
		return nil, err
	}
	if cfg.NoFillForms, err = flags.GetBool("no-fill-forms"); err != nil {
		return nil, err
	}
	if cfg.NoClassifier, err = flags.GetBool("no-classifier"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BrowserPath, err = flags.GetString("browser"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.DashboardAddr, err = flags.GetString("dashboard-addr"); err != nil {
		return nil, err
	}
	if cfg.DashboardWindow, err = flags.GetDuration("dashboard-window"); err != nil {
		return nil, err
	}
	if cfg.NoDashboard, err = flags.GetBool("no-dashboard"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	// An explicitly given configuration file must exist. Without one, a
	// missing file simply means no site settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Seeds = append(cfg.Seeds, args...)
	listPath, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		seeds, err := config.LoadSeedList(listPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed list: %w", err)
		}
		cfg.Seeds = append(cfg.Seeds, seeds...)
	}
	cfg.Seeds = append(cfg.Seeds, cfg.SiteConfigs.Seeds...)

	return cfg, nil
}

// runScan wires the collaborators of one run, crawls the seeds and writes
// the report artifacts. Only run-level failures are returned; per-page
// failures end up in the reports.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	lib := signature.Default()

	client, err := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithSites(siteSettings(cfg.SiteConfigs)),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	caps := capability.Set{Fetcher: client, Scorer: classify.Noop}
	if !cfg.NoRender {
		chrome := newRenderer(cfg, logger)
		defer chrome.Close()
		caps.Renderer = chrome
	}
	if !cfg.NoClassifier {
		caps.Scorer = loadClassifier(ctx, cfg, lib, logger)
	}
	caps = caps.Resolve(logger)

	payloads, err := loadPayloads(cfg)
	if err != nil {
		return err
	}
	prober := probe.New(caps.Fetcher, caps.Renderer, lib,
		probe.WithPayloads(payloads),
		probe.WithTimeout(cfg.ProbeTimeout),
		probe.WithRenderTimeout(cfg.RenderTimeout),
		probe.WithFuzzDelay(probe.Delay{Min: cfg.ProbeDelayMin, Max: cfg.ProbeDelayMax}),
		probe.WithDisruptionDelay(probe.Delay{Min: cfg.DisruptionDelayMin, Max: cfg.DisruptionDelayMax}),
		probe.WithLogger(logger),
	)

	analysis := pipeline.DefaultPipeline(lib, caps.Scorer, pipeline.Config{
		Headers:        !cfg.NoHeaders,
		Forms:          !cfg.NoForms,
		Passes:         cfg.DecodePasses,
		DetectionLimit: cfg.DetectionLimit,
	}, pipeline.WithLogger(logger))

	recorder := metrics.NewRecorder()
	opts := []crawler.Option{
		crawler.WithMaxDepth(cfg.Depth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithFetchWorkers(cfg.FetchWorkers),
		crawler.WithRenderWorkers(cfg.RenderWorkers),
		crawler.WithDisruptionAttempts(cfg.DisruptionAttempts),
		crawler.WithProber(prober),
		crawler.WithObserver(recorder),
		crawler.WithRenderOptions(capability.RenderOptions{FillForms: !cfg.NoFillForms}),
		crawler.WithScope(
			crawler.WithSameHost(cfg.SameHost),
			crawler.WithPatterns(sitePatterns(cfg.SiteConfigs)),
		),
		crawler.WithLogger(logger),
	}
	if !cfg.NoDashboard {
		dashboard := report.NewDashboard(cfg.DashboardAddr, cfg.DashboardWindow,
			report.WithMetricsHandler(recorder.Handler()),
			report.WithDashboardLogger(logger),
			report.WithOnListen(func(addr string) {
				fmt.Fprintf(out, "Layer results: http://%s/\n", addr)
			}),
		)
		opts = append(opts, crawler.WithLayerFunc(dashboard.Publish))
	}
	opts = append(opts, crawler.WithLayerFunc(progress(out)))

	fmt.Fprintf(out, "Scanning %d seed(s) up to depth %d...\n", len(cfg.Seeds), cfg.Depth)
	scheduler := crawler.NewScheduler(caps, analysis, opts...)
	result, runErr := scheduler.Run(ctx, cfg.Seeds)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("scan aborted: %w", runErr)
	}

	dir, err := report.NewOutputDir(cfg.OutputDir, time.Now())
	if err != nil {
		return err
	}
	run := report.NewRun(cfg.Seeds, cfg.Depth, result)
	artifacts, err := report.WriteArtifacts(dir, run, report.ArtifactOptions{Markdown: cfg.Markdown})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nScanned %d page(s), %d finding(s) in %s\n",
		len(run.Nodes), run.FindingCount(), run.Finished.Sub(run.Started).Round(time.Millisecond))
	fmt.Fprintf(out, "Text report: %s\n", artifacts.Text)
	fmt.Fprintf(out, "JSON report: %s\n", artifacts.JSON)
	if artifacts.Markdown != "" {
		fmt.Fprintf(out, "Markdown report: %s\n", artifacts.Markdown)
	}
	return runErr
}

// progress returns a layer callback printing one line per resolved layer.
func progress(out io.Writer) crawler.LayerFunc {
	return func(_ context.Context, layer *model.Layer) error {
		fmt.Fprintf(out, "Depth %d: %d page(s), %d finding(s)\n",
			layer.Depth, len(layer.Nodes), layer.FindingCount())
		return nil
	}
}

// newRenderer builds the headless Chrome renderer. The browser itself is
// started on the first render.
func newRenderer(cfg *config.Config, logger *slog.Logger) *render.Chrome {
	opts := []render.Option{
		render.WithTimeout(cfg.RenderTimeout),
		render.WithUserAgent(cfg.UserAgent),
		render.WithLogger(logger),
	}
	if cfg.BrowserPath != "" {
		opts = append(opts, render.WithExecPath(cfg.BrowserPath))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, render.WithProxy("socks5://"+cfg.ProxyAddress))
	}
	return render.NewChrome(opts...)
}

// loadClassifier trains or reloads the classifiers. A model store that
// cannot be opened only costs the reuse of earlier training.
func loadClassifier(ctx context.Context, cfg *config.Config, lib *signature.Library, logger *slog.Logger) capability.Scorer {
	store, err := classify.OpenStore(cfg.DataDir)
	if err != nil {
		logger.Warn("classifier store unavailable, training in memory", "dir", cfg.DataDir, "error", err)
		return classify.Load(ctx, lib, nil, logger)
	}
	defer store.Close()
	return classify.Load(ctx, lib, store, logger)
}

// loadPayloads returns the payloads from --payloads, then from the
// configuration file. Nil keeps the built-in list.
func loadPayloads(cfg *config.Config) ([]string, error) {
	if cfg.PayloadsFile != "" {
		payloads, err := probe.LoadPayloads(cfg.PayloadsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load payloads: %w", err)
		}
		return payloads, nil
	}
	if cfg.SiteConfigs != nil {
		return cfg.SiteConfigs.Payloads, nil
	}
	return nil, nil
}

// siteSettings maps the configuration file to per-host request settings.
func siteSettings(file *config.File) fetch.SiteFunc {
	return func(host string) fetch.Site {
		sc := file.GetSiteConfig(host)
		return fetch.Site{Cookie: sc.Cookie, Headers: sc.Headers}
	}
}

// sitePatterns maps the configuration file to per-host crawl patterns.
func sitePatterns(file *config.File) crawler.PatternFunc {
	return func(host string) ([]string, []string) {
		sc := file.GetSiteConfig(host)
		return sc.IgnorePatterns, sc.FollowPatterns
	}
}
