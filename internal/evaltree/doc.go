// Package evaltree implements the interval tree that maps time ranges to
// payloads for every compilation stage.
//
// The tree starts as a single root node spanning all time. Adding a range
// either attaches the payload to a node the range fully covers or subdivides
// the node into children. Children of a node are sorted, never overlap, and
// leave uncovered gaps that belong to their parent, so the data that applies
// at any point is the data of the deepest node containing it plus the data of
// each of its ancestors.
//
// Iterators walk the maximal ranges with unique content, synthesising the
// gaps between children, so iterating from an open lower bound to the end
// visits a partition of the whole real line.
package evaltree
