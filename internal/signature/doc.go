// Package signature holds the table of named vulnerability signatures used by
// the detectors and the classifier.
//
// A Signature pairs a name with an optional passive regular expression, a
// one-line explanation, and small positive/negative exemplar sets that seed
// the text classifier. Some names (missing headers, CSRF, service
// disruption, ...) have no passive pattern; they are raised by dedicated
// detectors but still carry explanations and exemplars.
//
// The table is built once by Default and never mutated afterwards. Every
// accessor returns copies, so a *Library can be shared freely between
// goroutines.
package signature
