package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/depthscan/internal/model"
)

// MarkdownWriter outputs a GitHub flavored summary of the run with a
// signature distribution chart, a per-node findings table and the link
// graph.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs run in Markdown format.
func (w *MarkdownWriter) Write(run *Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run)
	w.writeNodes(md, run)
	w.writeGraph(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *Run) {
	md.H1("depthscan Report")
	md.PlainText("")

	rows := [][]string{
		{"Seeds", strconv.Itoa(len(run.Seeds))},
		{"Max Depth", strconv.Itoa(run.MaxDepth)},
		{"Pages Processed", strconv.Itoa(len(run.Nodes))},
		{"URLs Discovered", strconv.Itoa(run.Discovered)},
		{"Findings", strconv.Itoa(run.FindingCount())},
	}
	if !run.Started.IsZero() {
		rows = append(rows,
			[]string{"Started", run.Started.Format("2006-01-02 15:04:05 MST")},
			[]string{"Duration", run.Finished.Sub(run.Started).Round(time.Millisecond).String()},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the per-signature summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *Run) {
	md.H2("Signature Summary")
	md.PlainText("")

	counts := run.CountBySignature()
	if len(counts) == 0 {
		md.Tip("No findings detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Signature, strconv.Itoa(c.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Signature", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, counts)

	if errs := errorCount(run.Nodes); errs > 0 {
		md.Warningf("%d of %d page(s) could not be fetched.", errs, len(run.Nodes))
	} else {
		md.Importantf("%d finding(s) across %d page(s).", run.FindingCount(), len(run.Nodes))
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart for the signature distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts []SignatureCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Findings by Signature"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(c.Signature, uint64(c.Count))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeNodes writes one section per node.
func (w *MarkdownWriter) writeNodes(md *markdown.Markdown, run *Run) {
	md.H2("Pages")
	md.PlainText("")

	for _, node := range run.Nodes {
		md.H3(node.URL)
		md.PlainText("")

		status := node.Status()
		if node.FetchErr != nil {
			status = "error: " + node.ErrorText()
		}
		md.BulletList(
			"Depth: "+strconv.Itoa(node.Depth),
			"Server: "+serverOf(node),
			"Status: "+status,
		)
		md.PlainText("")

		if len(node.Findings) > 0 {
			rows := make([][]string, len(node.Findings))
			for i, f := range node.Findings {
				rows[i] = []string{
					f.Signature,
					f.Method,
					truncateString(oneLine(f.Snippet), 60),
					fmt.Sprintf("%.3f", f.Confidence),
				}
			}
			md.Table(markdown.TableSet{
				Header: []string{"Signature", "Method", "Snippet", "Confidence"},
				Rows:   rows,
			})
			md.PlainText("")
		}
		if flags := node.Flags(); len(flags) > 0 {
			md.Cautionf("Flags found: %d", len(flags))
			md.BulletList(flags...)
			md.PlainText("")
		}
	}
}

// writeGraph writes the link graph as an edge table.
func (w *MarkdownWriter) writeGraph(md *markdown.Markdown, run *Run) {
	md.H2("Link Graph")
	md.PlainText("")

	if len(run.Edges) == 0 {
		md.PlainText("No links discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Edges))
	for i, e := range run.Edges {
		rows[i] = []string{e.From, e.To}
	}
	md.Table(markdown.TableSet{
		Header: []string{"From", "To"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [depthscan](https://github.com/nao1215/depthscan)*")
}

func serverOf(node *model.CrawlNode) string {
	if node.Server == "" {
		return model.UnknownServer
	}
	return node.Server
}

func errorCount(nodes []*model.CrawlNode) int {
	n := 0
	for _, node := range nodes {
		if node.FetchErr != nil {
			n++
		}
	}
	return n
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
