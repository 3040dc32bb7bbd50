// Package sequence is the authoring model compiled by the evaluation
// compiler: sequences of master tracks and object bindings, tracks of
// sections, and sub-sections nesting one sequence inside another.
//
// Sequences live in an Arena and are referenced through generation-checked
// Handles, so a sub-section pointing at a removed sequence resolves to
// nothing instead of dangling. Every object carries a signature that is
// regenerated by MarkAsChanged and propagated to its owners; compiled data
// is considered stale whenever the signature it was built from differs.
package sequence
