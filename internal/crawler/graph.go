package crawler

import "sync"

// Edge is a directed link from the page From to the discovered URL To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LinkGraph is an append-only directed graph of discovered links. It is
// used for reporting only. Safe for concurrent use.
type LinkGraph struct {
	mu    sync.Mutex
	edges []Edge
	index map[Edge]struct{}
}

// NewLinkGraph returns an empty LinkGraph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{index: make(map[Edge]struct{})}
}

// AddEdge records from -> to. Repeated edges are ignored. It reports
// whether the edge was new.
func (g *LinkGraph) AddEdge(from, to string) bool {
	e := Edge{From: from, To: to}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[e]; ok {
		return false
	}
	g.index[e] = struct{}{}
	g.edges = append(g.edges, e)
	return true
}

// Edges returns a copy of the edges in insertion order.
func (g *LinkGraph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of edges.
func (g *LinkGraph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}

// outgoing returns the targets linked from url in insertion order.
func (g *LinkGraph) outgoing(url string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, e := range g.edges {
		if e.From == url {
			out = append(out, e.To)
		}
	}
	return out
}
