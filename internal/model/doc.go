// Package model defines the data shared by the crawler, detectors, prober
// and reporters.
//
// The main types are:
//   - Finding: one piece of evidence that a signature matched
//   - FindingSet: per-node collection with exact-tuple deduplication
//   - FetchResult / RenderResult: opaque outputs of the fetch and render collaborators
//   - CrawlNode: everything learned about one URL during a run
//   - Layer: the nodes resolved at one depth
//
// A CrawlNode is written by exactly one worker while it is scanned and is
// read-only afterwards.
package model
