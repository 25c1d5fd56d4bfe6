// Package probe implements active probing: payload injection through plain
// HTTP and through the headless browser, and a repeated-request disruption
// probe.
//
// Probes never fail a scan. A payload whose request errors or times out is
// skipped and the remaining payloads still run; an unavailable renderer
// turns FuzzRendered into a no-op. Requests are spaced by a randomized delay
// so probing is human-paced and does not trip simple rate limiting.
package probe
