package report

import (
	"cmp"
	"io"
	"slices"
	"time"

	"github.com/nao1215/depthscan/internal/crawler"
	"github.com/nao1215/depthscan/internal/model"
)

// Run is the read-only view of a finished crawl that writers render.
type Run struct {
	// Seeds are the URLs the crawl started from.
	Seeds []string

	// MaxDepth is the configured maximum depth.
	MaxDepth int

	// Started and Finished bound the crawl.
	Started  time.Time
	Finished time.Time

	// Nodes are every processed node in layer order.
	Nodes []*model.CrawlNode

	// Edges are the discovered links.
	Edges []crawler.Edge

	// Discovered is the number of distinct URLs ever queued.
	Discovered int
}

// NewRun builds a Run from a scheduler result. A nil result yields a Run
// without nodes.
func NewRun(seeds []string, maxDepth int, result *crawler.Result) *Run {
	run := &Run{Seeds: seeds, MaxDepth: maxDepth}
	if result == nil {
		return run
	}
	run.Started = result.Started
	run.Finished = result.Finished
	run.Nodes = result.Nodes
	run.Discovered = result.Discovered
	if result.Graph != nil {
		run.Edges = result.Graph.Edges()
	}
	return run
}

// FindingCount returns the total number of findings.
func (r *Run) FindingCount() int {
	total := 0
	for _, n := range r.Nodes {
		total += len(n.Findings)
	}
	return total
}

// SignatureCount is the number of findings of one signature.
type SignatureCount struct {
	Signature string
	Count     int
}

// CountBySignature returns the finding counts per signature, most frequent
// first and then by name.
func (r *Run) CountBySignature() []SignatureCount {
	return countBySignature(r.Nodes)
}

func countBySignature(nodes []*model.CrawlNode) []SignatureCount {
	counts := make(map[string]int)
	for _, n := range nodes {
		for _, f := range n.Findings {
			counts[f.Signature]++
		}
	}
	out := make([]SignatureCount, 0, len(counts))
	for sig, c := range counts {
		out = append(out, SignatureCount{Signature: sig, Count: c})
	}
	slices.SortFunc(out, func(a, b SignatureCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Signature, b.Signature)
	})
	return out
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *Run) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
