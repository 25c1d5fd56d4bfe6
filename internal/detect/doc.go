// Package detect implements the passive analyzers that turn a fetched or
// rendered page into findings.
//
// Every Detector is a pure function of its Input: it does no I/O, keeps no
// state between calls and never fails. Malformed HTML or unexpected input
// yields no findings. A Set runs a list of detectors and concatenates their
// output; deduplication is left to the caller's model.FindingSet so that
// findings of different detectors on the same evidence are all kept.
//
// # Detectors
//
//   - BodyPattern: every signature pattern over single- and multi-pass normalized text
//   - DOM: inline script blocks and on* event-handler attributes (goquery)
//   - Header: missing security headers, outdated Server, weak Set-Cookie flags
//   - Form: GET forms carrying secrets, suspicious field names, POST forms without CSRF token
//   - QueryParam: suspicious query parameter names and values
package detect
