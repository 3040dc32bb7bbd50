// Package player provides an in-memory host for evaluation.
//
// Memory implements evalcontext.Player on top of plain Go objects: named
// objects with float properties bound to bindings, a pre-animated state store
// that restores properties when the entity that changed them finishes, a
// spawn register creating objects on demand, and a trace recorder templates
// can report to. The CLI drives evaluation through it, and so do the tests of
// every package above the compiler.
package player
