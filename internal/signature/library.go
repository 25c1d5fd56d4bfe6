package signature

import (
	"regexp"
	"slices"
	"sync"
)

// Signature is one named detection rule.
type Signature struct {
	// Name is the unique key of the signature.
	Name string

	// Pattern matches decoded, lowercased text. It is nil for signatures
	// raised only by dedicated detectors.
	Pattern *regexp.Regexp

	// Explanation is a one-line human readable description.
	Explanation string

	// Positive and Negative are classifier training exemplars.
	Positive []string
	Negative []string
}

// Trainable reports whether the signature has both exemplar classes.
func (s Signature) Trainable() bool {
	return len(s.Positive) > 0 && len(s.Negative) > 0
}

func (s Signature) clone() Signature {
	s.Positive = slices.Clone(s.Positive)
	s.Negative = slices.Clone(s.Negative)
	return s
}

// Library is an immutable, ordered set of signatures.
type Library struct {
	signatures []Signature
	byName     map[string]int
	outdated   *regexp.Regexp
}

// newLibrary compiles entries into a Library. Patterns are compiled case-insensitive
// with dot matching newlines. It panics on an invalid pattern or duplicate
// name since the table is static.
func newLibrary(entries []entry) *Library {
	lib := &Library{
		signatures: make([]Signature, 0, len(entries)),
		byName:     make(map[string]int, len(entries)),
		outdated:   regexp.MustCompile(`(?i)` + outdatedServerPattern),
	}
	for _, e := range entries {
		if _, dup := lib.byName[e.name]; dup {
			panic("signature: duplicate name " + e.name)
		}
		sig := Signature{
			Name:        e.name,
			Explanation: e.explanation,
			Positive:    slices.Clone(e.positive),
			Negative:    slices.Clone(e.negative),
		}
		if e.pattern != "" {
			sig.Pattern = regexp.MustCompile(`(?is)` + e.pattern)
		}
		lib.byName[e.name] = len(lib.signatures)
		lib.signatures = append(lib.signatures, sig)
	}
	return lib
}

// Default returns the process-wide signature library. It is built on first
// use and shared afterwards.
var Default = sync.OnceValue(func() *Library {
	return newLibrary(table)
})

// All returns every signature in table order.
func (l *Library) All() []Signature {
	out := make([]Signature, len(l.signatures))
	for i, s := range l.signatures {
		out[i] = s.clone()
	}
	return out
}

// Patterned returns the signatures that carry a passive body pattern.
func (l *Library) Patterned() []Signature {
	out := make([]Signature, 0, len(l.signatures))
	for _, s := range l.signatures {
		if s.Pattern != nil {
			out = append(out, s.clone())
		}
	}
	return out
}

// Trainable returns the signatures with both positive and negative
// exemplars.
func (l *Library) Trainable() []Signature {
	out := make([]Signature, 0, len(l.signatures))
	for _, s := range l.signatures {
		if s.Trainable() {
			out = append(out, s.clone())
		}
	}
	return out
}

// Lookup returns the signature with the given name.
func (l *Library) Lookup(name string) (Signature, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Signature{}, false
	}
	return l.signatures[i].clone(), true
}

// Explain returns the explanation for name, or NoExplanation.
func (l *Library) Explain(name string) string {
	if i, ok := l.byName[name]; ok && l.signatures[i].Explanation != "" {
		return l.signatures[i].Explanation
	}
	return NoExplanation
}

// OutdatedServer reports the first known-outdated server token in value.
func (l *Library) OutdatedServer(value string) (string, bool) {
	m := l.outdated.FindString(value)
	return m, m != ""
}

// Len returns the number of signatures.
func (l *Library) Len() int {
	return len(l.signatures)
}
