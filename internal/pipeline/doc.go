// Package pipeline runs the per-node analysis that follows the fetch and
// render join of the crawl scheduler.
//
// A Pipeline is an ordered list of Steps. Every step receives the same
// NodeScan, which carries the joined fetch and render outcomes and the
// active probe findings, and adds findings, links or metadata to it. When
// the pipeline finishes, the accumulated state is written back to the
// CrawlNode, which becomes read-only for reporting.
//
// DefaultPipeline wires the steps in the order findings are reported:
// query parameters, active probes, passive detectors on the fetched page,
// classifier scores, the rendered page, and finally link, title and script
// extraction.
package pipeline
