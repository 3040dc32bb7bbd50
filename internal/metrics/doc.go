// Package metrics exposes Prometheus counters for template generation,
// field compilation and root instance evaluation. Every method is safe to
// call on a nil *Metrics so the core can run uninstrumented.
package metrics
