// Package field is the evaluation field: the cache mapping sorted,
// non-overlapping time ranges to fully resolved evaluation groups and the
// metadata needed to detect what became active, what expired and what went
// stale between two evaluations.
package field
