package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no seed URL is given on the command
	// line, in a list file or in the configuration file.
	ErrNoTarget = errors.New("no target specified: provide a seed URL or use --list")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidWorkers is returned when a worker pool size is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelayRange is returned when a delay range is negative or
	// its maximum is below its minimum.
	ErrInvalidDelayRange = errors.New("invalid delay range: need 0 <= min <= max")

	// ErrInvalidAttempts is returned when the disruption attempts are negative.
	ErrInvalidAttempts = errors.New("invalid disruption attempts: must be non-negative")

	// ErrInvalidDetectionLimit is returned when the detection body cap is
	// not positive.
	ErrInvalidDetectionLimit = errors.New("invalid detection limit: must be positive")

	// ErrInvalidDecodePasses is returned when the decode passes are not positive.
	ErrInvalidDecodePasses = errors.New("invalid decode passes: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRate is returned when the request rate is negative.
	ErrInvalidRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidDashboardWindow is returned when the dashboard is enabled
	// with a non-positive window.
	ErrInvalidDashboardWindow = errors.New("invalid dashboard window: must be positive")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
