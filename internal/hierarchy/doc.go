// Package hierarchy records how sequences nest: which sequence instance is
// the parent of which, and the sub-sequence data (time transform, ranges,
// bias) that places each nested instance in root time.
package hierarchy
