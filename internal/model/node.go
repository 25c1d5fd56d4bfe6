package model

import (
	"net/http"
	"strconv"
	"time"
)

// UnknownServer is recorded when a response has no Server header.
const UnknownServer = "Unknown"

// FetchResult is the output of the fetch collaborator for one URL.
type FetchResult struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Reason is the status text, e.g. "OK".
	Reason string

	// Headers holds the response headers. Lookups through Get are
	// case-insensitive.
	Headers http.Header

	// Body is the full response body, bounded only by the fetcher's size cap.
	Body string
}

// Status formats the status line as "200 OK".
func (r *FetchResult) Status() string {
	if r == nil {
		return ""
	}
	if r.Reason == "" {
		return strconv.Itoa(r.StatusCode)
	}
	return strconv.Itoa(r.StatusCode) + " " + r.Reason
}

// Server returns the Server header or UnknownServer.
func (r *FetchResult) Server() string {
	if r == nil {
		return UnknownServer
	}
	if s := r.Headers.Get("Server"); s != "" {
		return s
	}
	return UnknownServer
}

// DetectionBody returns the first limit characters of the body. Detectors
// run on this prefix while link extraction uses the full body.
func (r *FetchResult) DetectionBody(limit int) string {
	if r == nil {
		return ""
	}
	return Prefix(r.Body, limit)
}

// RenderResult is the output of the render collaborator for one URL.
type RenderResult struct {
	// Body is the rendered page source.
	Body string

	// Flags holds capture-the-flag style tokens found in the rendered page
	// and in any form submission responses.
	Flags []string

	// FormsSubmitted counts the forms that were auto-filled and submitted.
	FormsSubmitted int
}

// CrawlNode is everything learned about one URL during a run.
type CrawlNode struct {
	// URL is the unique key of the node within a run.
	URL string

	// Depth is the BFS depth at which the URL was first discovered.
	Depth int

	// Fetch is nil when FetchErr is set.
	Fetch    *FetchResult
	FetchErr error

	// Render is nil when rendering failed or was unavailable.
	Render    *RenderResult
	RenderErr error

	// Server is the Server response header or UnknownServer.
	Server string

	// Title is the HTML title of the fetched page, if any.
	Title string

	// Findings holds the deduplicated findings in discovery order.
	Findings []Finding

	// Links are the in-scope links extracted from the fetched and rendered
	// bodies, deduplicated, in discovery order.
	Links []string

	// JSFunctions are named function definitions found in inline scripts.
	JSFunctions []string

	// StartedAt and FinishedAt bound the node's processing.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Status returns the fetch status line, or an empty string on fetch error.
func (n *CrawlNode) Status() string {
	if n.Fetch == nil {
		return ""
	}
	return n.Fetch.Status()
}

// ErrorText returns the fetch error text, or an empty string.
func (n *CrawlNode) ErrorText() string {
	if n.FetchErr == nil {
		return ""
	}
	return n.FetchErr.Error()
}

// Flags returns the flags collected by the renderer.
func (n *CrawlNode) Flags() []string {
	if n.Render == nil {
		return nil
	}
	return n.Render.Flags
}

// Layer is the set of nodes resolved at one depth.
type Layer struct {
	Depth    int
	Nodes    []*CrawlNode
	Duration time.Duration
}

// FindingCount returns the number of findings across the layer.
func (l *Layer) FindingCount() int {
	total := 0
	for _, n := range l.Nodes {
		total += len(n.Findings)
	}
	return total
}
