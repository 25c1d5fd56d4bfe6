// Package report renders crawl results.
//
// This package contains writers for each output format:
//   - TextWriter: the flat per-node text report
//   - JSONWriter: the structured array-of-nodes document
//   - MarkdownWriter: an optional summary with a signature pie chart and
//     the link graph
//
// Writers implement the Writer interface and are given a Run, which is the
// read-only view of a finished crawl. WriteArtifacts writes every enabled
// format into a fresh output directory created by NewOutputDir.
//
// Dashboard serves one HTML page per resolved layer for a short window and
// then shuts down before the crawl continues.
package report
