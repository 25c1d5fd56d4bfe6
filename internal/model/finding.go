package model

import "unicode/utf8"

// SnippetLimit is the maximum number of characters kept from matched
// evidence before an ellipsis is appended.
const SnippetLimit = 200

// Finding is one piece of evidence that a signature matched.
// Findings are values; two findings are equal when every field is equal.
type Finding struct {
	// Signature is the name of the matched signature.
	Signature string

	// Method is the detection method label, e.g. "pattern-based".
	Method string

	// Snippet is the clipped evidence.
	Snippet string

	// Explanation is the human readable description of the signature.
	Explanation string

	// Confidence is in [0, 1]. Pattern matches carry 1.0.
	Confidence float64
}

// NewFinding builds a Finding, clipping the snippet to SnippetLimit and
// clamping confidence into [0, 1].
func NewFinding(signature, method, snippet, explanation string, confidence float64) Finding {
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return Finding{
		Signature:   signature,
		Method:      method,
		Snippet:     Clip(snippet, SnippetLimit),
		Explanation: explanation,
		Confidence:  confidence,
	}
}

// Clip returns s truncated to limit characters followed by "..." when it is
// longer than limit.
func Clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return Prefix(s, limit) + "..."
}

// Prefix returns the first limit characters of s.
func Prefix(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// FindingSet collects findings in insertion order and drops exact
// duplicates of (signature, method, snippet). It is not safe for concurrent
// use; each node owns its own set.
type FindingSet struct {
	seen  map[findingKey]struct{}
	items []Finding
}

type findingKey struct {
	signature string
	method    string
	snippet   string
}

// NewFindingSet returns an empty FindingSet.
func NewFindingSet() *FindingSet {
	return &FindingSet{seen: make(map[findingKey]struct{})}
}

// Add appends findings that are not already present. It returns the number
// of findings actually added.
func (s *FindingSet) Add(findings ...Finding) int {
	added := 0
	for _, f := range findings {
		k := findingKey{signature: f.Signature, method: f.Method, snippet: f.Snippet}
		if _, ok := s.seen[k]; ok {
			continue
		}
		s.seen[k] = struct{}{}
		s.items = append(s.items, f)
		added++
	}
	return added
}

// Len returns the number of distinct findings.
func (s *FindingSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the findings in insertion order.
func (s *FindingSet) Items() []Finding {
	out := make([]Finding, len(s.items))
	copy(out, s.items)
	return out
}
