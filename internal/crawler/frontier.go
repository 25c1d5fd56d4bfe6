package crawler

import (
	"container/heap"
	"sync"
)

// entry is one queued URL.
type entry struct {
	url   string
	depth int
	seq   uint64
}

// entryHeap orders entries by depth, then by insertion order.
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].depth != h[j].depth {
		return h[i].depth < h[j].depth
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Frontier is a depth-ordered work queue. A URL is accepted once per
// Frontier: it is marked seen when pushed, not when popped, so concurrent
// discovery of the same link queues it only once. Frontier is safe for
// concurrent use.
type Frontier struct {
	mu   sync.Mutex
	heap entryHeap
	seen map[string]struct{}
	seq  uint64
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[string]struct{})}
}

// Push queues url at depth. It returns false if url was pushed before.
func (f *Frontier) Push(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[url]; ok {
		return false
	}
	f.seen[url] = struct{}{}
	f.seq++
	heap.Push(&f.heap, entry{url: url, depth: depth, seq: f.seq})
	return true
}

// PopLayer removes and returns every entry at the minimum queued depth, in
// insertion order. It returns -1 and nil when the Frontier is empty.
func (f *Frontier) PopLayer() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.heap) == 0 {
		return -1, nil
	}
	depth := f.heap[0].depth
	var urls []string
	for len(f.heap) > 0 && f.heap[0].depth == depth {
		urls = append(urls, heap.Pop(&f.heap).(entry).url)
	}
	return depth, urls
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.heap)
}

// Seen reports whether url was ever pushed.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[url]
	return ok
}

// SeenCount returns the number of distinct URLs ever pushed.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
