// Package config provides the run configuration of depthscan: defaults,
// validation, the optional YAML configuration file with per-site settings,
// and the XDG directories used for persistent data.
package config
