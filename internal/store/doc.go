// Package store persists compiled templates in SQLite.
//
// Snapshots are keyed by sequence name and carry the signature of the
// sequence they were compiled from. PersistentStore seeds freshly created
// templates from them so a process evaluating an unchanged scene skips
// recompiling segments and field entries. A file lock keeps a second process
// from writing the same database.
package store
