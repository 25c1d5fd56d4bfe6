// Package metrics counts crawl activity with a private prometheus registry.
//
// A Recorder observes the scheduler as nodes and layers resolve. Its
// Handler serves the registry in the prometheus exposition format and is
// mounted by the transient dashboard at /metrics.
package metrics
