package report

import (
	"encoding/json"
	"io"
	"math"

	"github.com/nao1215/depthscan/internal/model"
)

// JSONWriter outputs the structured report: a JSON array with one object
// per node.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONNode is the structured form of one node.
type JSONNode struct {
	Server    string          `json:"server"`
	URL       string          `json:"url"`
	Depth     int             `json:"depth"`
	Title     string          `json:"title,omitempty"`
	Status    *string         `json:"status"`
	Error     string          `json:"error"`
	Detection []JSONDetection `json:"detections"`
	Functions []string        `json:"extracted_js_functions"`
	Flags     []string        `json:"found_flags"`
	Links     []string        `json:"links"`
}

// JSONDetection is the structured form of one finding.
type JSONDetection struct {
	Type        string  `json:"type"`
	Tactic      string  `json:"tactic"`
	Explanation string  `json:"explanation"`
	Snippet     string  `json:"snippet"`
	Confidence  float64 `json:"confidence"`
}

// NewJSONNode converts a node. Status is nil when the fetch failed. Slices
// are never nil so they encode as [].
func NewJSONNode(node *model.CrawlNode) JSONNode {
	out := JSONNode{
		Server:    node.Server,
		URL:       node.URL,
		Depth:     node.Depth,
		Title:     node.Title,
		Error:     node.ErrorText(),
		Detection: make([]JSONDetection, 0, len(node.Findings)),
		Functions: nonNil(node.JSFunctions),
		Flags:     nonNil(node.Flags()),
		Links:     nonNil(node.Links),
	}
	if out.Server == "" {
		out.Server = model.UnknownServer
	}
	if node.Fetch != nil {
		status := node.Status()
		out.Status = &status
	}
	for _, f := range node.Findings {
		out.Detection = append(out.Detection, JSONDetection{
			Type:        f.Signature,
			Tactic:      f.Method,
			Explanation: f.Explanation,
			Snippet:     f.Snippet,
			Confidence:  roundConfidence(f.Confidence),
		})
	}
	return out
}

// Write outputs the nodes of run as a JSON array.
func (w *JSONWriter) Write(run *Run) (int, error) {
	nodes := make([]JSONNode, 0, len(run.Nodes))
	for _, n := range run.Nodes {
		nodes = append(nodes, NewJSONNode(n))
	}
	return w.writeJSON(nodes)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}

// roundConfidence rounds to three decimals.
func roundConfidence(c float64) float64 {
	return math.Round(c*1000) / 1000
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
