package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact file names inside an output directory.
const (
	TextFile     = "scan_results.txt"
	JSONFile     = "scan_results.json"
	MarkdownFile = "scan_results.md"
)

// NewOutputDir creates a fresh directory under base named
// results_<YYYYmmdd_HHMMSS>_<id>. The random id keeps directories created
// in the same second apart.
func NewOutputDir(base string, now time.Time) (string, error) {
	if base == "" {
		base = "."
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output base %s: %w", base, err)
	}
	name := fmt.Sprintf("results_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
	dir := filepath.Join(base, name)
	if err := os.Mkdir(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return dir, nil
}

// ArtifactOptions selects the optional artifacts.
type ArtifactOptions struct {
	// Markdown also writes the Markdown summary.
	Markdown bool
}

// Artifacts holds the paths of the written files.
type Artifacts struct {
	Dir      string
	Text     string
	JSON     string
	Markdown string
}

// WriteArtifacts writes the text and JSON reports, and the Markdown report
// when enabled, into dir.
func WriteArtifacts(dir string, run *Run, opts ArtifactOptions) (Artifacts, error) {
	out := Artifacts{
		Dir:  dir,
		Text: filepath.Join(dir, TextFile),
		JSON: filepath.Join(dir, JSONFile),
	}
	text := func(w io.Writer) Writer { return NewTextWriter(w) }
	if err := writeFile(out.Text, text, run); err != nil {
		return out, err
	}
	structured := func(w io.Writer) Writer { return NewJSONWriter(w, WithPrettyPrint()) }
	if err := writeFile(out.JSON, structured, run); err != nil {
		return out, err
	}
	if opts.Markdown {
		out.Markdown = filepath.Join(dir, MarkdownFile)
		summary := func(w io.Writer) Writer { return NewMarkdownWriter(w) }
		if err := writeFile(out.Markdown, summary, run); err != nil {
			return out, err
		}
	}
	return out, nil
}

// writeFile renders run with the writer built by newWriter and writes the
// result to path.
func writeFile(path string, newWriter func(io.Writer) Writer, run *Run) error {
	var buf bytes.Buffer
	if _, err := newWriter(&buf).Write(run); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
