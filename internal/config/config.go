package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "depthscan"

	// DefaultDepth is the deepest crawl layer. Depth 0 processes only the
	// seeds.
	DefaultDepth = 2

	// DefaultFetchWorkers is the size of the fetch pool. Plain HTTP requests
	// are cheap, so the pool is wide.
	DefaultFetchWorkers = 50

	// DefaultRenderWorkers is the size of the render pool. Each worker
	// drives a browser tab.
	DefaultRenderWorkers = 5

	// DefaultFetchTimeout bounds each page fetch.
	DefaultFetchTimeout = 5 * time.Second

	// DefaultProbeTimeout bounds each active probe request.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultRenderTimeout bounds each browser render.
	DefaultRenderTimeout = 30 * time.Second

	// DefaultProbeDelayMin and DefaultProbeDelayMax bound the random pause
	// between payload requests.
	DefaultProbeDelayMin = 1200 * time.Millisecond
	DefaultProbeDelayMax = 2500 * time.Millisecond

	// DefaultDisruptionAttempts is the number of disruption requests per node.
	DefaultDisruptionAttempts = 3

	// DefaultDisruptionDelayMin and DefaultDisruptionDelayMax bound the
	// random pause between disruption requests.
	DefaultDisruptionDelayMin = 1 * time.Second
	DefaultDisruptionDelayMax = 2 * time.Second

	// DefaultDetectionLimit is the number of body characters detectors inspect.
	DefaultDetectionLimit = 5000

	// DefaultDecodePasses is the number of decode passes of the pattern detector.
	DefaultDecodePasses = 2

	// DefaultMaxBodySize limits the response body size read per fetch.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// DefaultDashboardAddr is the address of the per-layer dashboard.
	DefaultDashboardAddr = "127.0.0.1:6999"

	// DefaultDashboardWindow is how long each layer page is served.
	DefaultDashboardWindow = 5 * time.Second

	// DefaultOutputDir is the base directory of result directories.
	DefaultOutputDir = "."
)

// Config holds all options of one run. It is populated from CLI flags and
// the configuration file and passed down explicitly.
type Config struct {
	// Seeds are the URLs the crawl starts from.
	Seeds []string

	// Depth is the maximum crawl depth.
	Depth int

	// MaxPages caps the number of processed pages. Zero means unlimited.
	MaxPages int

	// SameHost restricts the crawl to the hosts of the seeds.
	SameHost bool

	// FetchWorkers and RenderWorkers size the two pools.
	FetchWorkers  int
	RenderWorkers int

	// FetchTimeout, ProbeTimeout and RenderTimeout bound single requests.
	FetchTimeout  time.Duration
	ProbeTimeout  time.Duration
	RenderTimeout time.Duration

	// ProbeDelayMin and ProbeDelayMax bound the pause between payloads.
	ProbeDelayMin time.Duration
	ProbeDelayMax time.Duration

	// DisruptionAttempts is the number of disruption requests. Zero
	// disables the disruption probe.
	DisruptionAttempts int

	// DisruptionDelayMin and DisruptionDelayMax bound the pause between
	// disruption requests.
	DisruptionDelayMin time.Duration
	DisruptionDelayMax time.Duration

	// DetectionLimit caps the body characters detectors inspect.
	DetectionLimit int

	// DecodePasses is the number of decode passes of the pattern detector.
	DecodePasses int

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// RequestsPerSecond limits outgoing HTTP requests. Zero means unlimited.
	RequestsPerSecond float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// BrowserPath overrides the browser executable lookup.
	BrowserPath string

	// Detector and capability toggles.
	NoRender     bool
	NoClassifier bool
	NoHeaders    bool
	NoForms      bool
	NoFillForms  bool

	// PayloadsFile is an optional file with one probe payload per line.
	PayloadsFile string

	// DashboardAddr and DashboardWindow configure the per-layer dashboard.
	DashboardAddr   string
	DashboardWindow time.Duration

	// NoDashboard disables the per-layer dashboard.
	NoDashboard bool

	// OutputDir is the base directory of result directories.
	OutputDir string

	// Markdown also writes the Markdown report.
	Markdown bool

	// DataDir holds the classifier model database.
	DataDir string

	// Verbose enables debug logging. LogJSON switches to JSON logs.
	Verbose bool
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .depthscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Depth:              DefaultDepth,
		FetchWorkers:       DefaultFetchWorkers,
		RenderWorkers:      DefaultRenderWorkers,
		FetchTimeout:       DefaultFetchTimeout,
		ProbeTimeout:       DefaultProbeTimeout,
		RenderTimeout:      DefaultRenderTimeout,
		ProbeDelayMin:      DefaultProbeDelayMin,
		ProbeDelayMax:      DefaultProbeDelayMax,
		DisruptionAttempts: DefaultDisruptionAttempts,
		DisruptionDelayMin: DefaultDisruptionDelayMin,
		DisruptionDelayMax: DefaultDisruptionDelayMax,
		DetectionLimit:     DefaultDetectionLimit,
		DecodePasses:       DefaultDecodePasses,
		MaxBodySize:        DefaultMaxBodySize,
		UserAgent:          DefaultUserAgent,
		DashboardAddr:      DefaultDashboardAddr,
		DashboardWindow:    DefaultDashboardWindow,
		OutputDir:          DefaultOutputDir,
		DataDir:            XDGDataDir(),
		SiteConfigs:        &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for depthscan.
// On Linux: ~/.local/share/depthscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for depthscan.
// On Linux: ~/.config/depthscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first sentinel error describing what is invalid.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoTarget
	}
	if c.Depth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.FetchWorkers <= 0 || c.RenderWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if c.FetchTimeout <= 0 || c.ProbeTimeout <= 0 || c.RenderTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if !validRange(c.ProbeDelayMin, c.ProbeDelayMax) || !validRange(c.DisruptionDelayMin, c.DisruptionDelayMax) {
		return ErrInvalidDelayRange
	}
	if c.DisruptionAttempts < 0 {
		return ErrInvalidAttempts
	}
	if c.DetectionLimit <= 0 {
		return ErrInvalidDetectionLimit
	}
	if c.DecodePasses <= 0 {
		return ErrInvalidDecodePasses
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if !c.NoDashboard && c.DashboardWindow <= 0 {
		return ErrInvalidDashboardWindow
	}
	return nil
}

func validRange(lo, hi time.Duration) bool {
	return lo >= 0 && hi >= lo
}
