// Package crawler schedules the depth-layered crawl.
//
// # Architecture
//
// The Scheduler owns a Frontier, a min-priority queue of (depth, url) pairs
// with a companion seen set, and a LinkGraph of discovered edges. It pops
// one whole depth layer at a time and processes its nodes in parallel. The
// next layer starts only after every node of the current one has resolved,
// which gives the crawl its breadth-first, layer-synchronous order.
//
// Each node runs two jobs concurrently:
//
//   - the fetch job (HTTP payload fuzzing, the disruption probe and the page
//     fetch), holding a slot of the fetch pool
//   - the render job (headless rendering and browser payload fuzzing),
//     holding a slot of the much smaller render pool
//
// The node waits for both, then an Analyzer merges the outcomes into the
// node's findings and links. In-scope links are recorded as graph edges and
// pushed to the Frontier at depth+1 when that does not exceed the maximum
// depth. Discovery is idempotent: a URL that was ever pushed is never pushed
// again.
//
// # Components
//
//   - Scheduler: the layer loop, the two worker pools and the per-node join
//   - Frontier: depth-ordered queue with a seen set
//   - LinkGraph: append-only directed graph of discovered links
//   - Parser: HTML link and title extraction
//   - Scope: URL filtering by scheme, host and glob patterns
//
// # Failure handling
//
// Transport errors are recorded on the node and never stop the layer. The
// only errors Run returns are context cancellation and errors of the layer
// callback, e.g. a dashboard that cannot bind its port.
package crawler
