// Package evalcontext defines the values that flow through evaluation: the
// identifiers of sequences, tracks and sections, the time context handed to
// every template, the persistent per-entity data store, the execution token
// stack, and the contracts of the host-side player that bound objects,
// pre-animated state and spawned objects live behind.
package evalcontext
