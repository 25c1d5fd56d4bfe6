// Package render is the headless browser collaborator, driving Chrome or
// Chromium through the DevTools protocol with chromedp.
//
// One browser process is started lazily on the first Render and shared by
// all calls; every Render opens its own tab, so calls are safe to run
// concurrently. The number of concurrent tabs is bounded by the caller's
// render pool, not here.
//
// With form filling enabled, each form of the page is loaded in a fresh
// navigation, every fillable input receives the sentinel FormPayload and
// the form is submitted. Capture-the-flag style tokens (CTF{...}) are
// collected from the rendered page and from every post-submit page.
package render
