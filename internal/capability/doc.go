// Package capability describes the external collaborators a scan depends on:
// fetching a page over HTTP, rendering it in a headless browser, and scoring
// text with trained classifiers.
//
// Rendering and scoring are optional. When a deployment lacks a browser or
// the classifier models, the corresponding no-op implementation is selected
// once at startup by Resolve, and every call site uses the Set without
// checking availability again. A no-op Renderer or Scorer yields empty
// results, never errors.
package capability
