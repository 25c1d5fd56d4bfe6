package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/depthscan/internal/model"
)

// TextWriter outputs the flat per-node text report: a block per node with
// its server, URL and status or error, then one line per finding.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs every node of run.
func (w *TextWriter) Write(run *Run) (int, error) {
	var sb strings.Builder
	for _, node := range run.Nodes {
		writeTextNode(&sb, node)
	}
	return io.WriteString(w.output, sb.String())
}

func writeTextNode(sb *strings.Builder, node *model.CrawlNode) {
	server := node.Server
	if server == "" {
		server = model.UnknownServer
	}
	fmt.Fprintf(sb, "Server causing detection: %s\n", server)
	fmt.Fprintf(sb, "URL: %s\n", node.URL)
	if node.FetchErr != nil {
		fmt.Fprintf(sb, "  Error: %s\n", oneLine(node.ErrorText()))
	} else {
		fmt.Fprintf(sb, "  Status: %s\n", node.Status())
	}

	for _, f := range node.Findings {
		fmt.Fprintf(sb, "    %s | Tactic: %s | Explanation: %s | Snippet: %s\n",
			f.Signature, f.Method, f.Explanation, oneLine(f.Snippet))
	}

	if len(node.JSFunctions) > 0 {
		sb.WriteString("  JS Functions:\n")
		for _, fn := range node.JSFunctions {
			fmt.Fprintf(sb, "    %s\n", oneLine(fn))
		}
	}
	if flags := node.Flags(); len(flags) > 0 {
		fmt.Fprintf(sb, "  Flags: %s\n", strings.Join(flags, ", "))
	}
	sb.WriteString("\n")
}

// oneLine collapses line breaks so each finding stays on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
