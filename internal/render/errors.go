package render

import "errors"

var (
	// ErrBrowserUnavailable is returned by Render when no Chrome or
	// Chromium executable can be found.
	ErrBrowserUnavailable = errors.New("headless browser unavailable")

	// ErrClosed is returned by Render after Close.
	ErrClosed = errors.New("renderer closed")
)
