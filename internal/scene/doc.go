// Package scene loads TOML scene documents into an arena of sequences.
//
// A document lists sequences by name. Sub-sections nest other sequences of
// the same document by name, and every signature and binding id is derived
// from the document content, so loading the same document twice yields
// identical signatures. Persisted templates rely on that to match across
// process runs.
package scene
