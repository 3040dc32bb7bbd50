package evaltree

import "moviescene/internal/timerange"

// Iterator walks the unique-content ranges of a Tree in either direction.
type Iterator[T comparable] struct {
	tree *Tree[T]
	r    timerange.Range
	node NodeHandle
}

// Valid reports whether the iterator is positioned on a range.
func (it *Iterator[T]) Valid() bool {
	return it != nil && it.node != InvalidNode
}

// Range returns the current range.
func (it *Iterator[T]) Range() timerange.Range {
	return it.r
}

// Node returns the node owning the current range. Pass it to Tree.AllData to
// enumerate the payloads that apply over Range.
func (it *Iterator[T]) Node() NodeHandle {
	return it.node
}

// Data returns the payloads that apply over the current range.
func (it *Iterator[T]) Data() []T {
	if !it.Valid() {
		return nil
	}
	return it.tree.CollectAllData(it.node)
}

// Clone returns an independent copy of the iterator.
func (it *Iterator[T]) Clone() *Iterator[T] {
	cp := *it
	return &cp
}

// Next moves to the following range and reports whether one exists.
func (it *Iterator[T]) Next() bool {
	if !it.Valid() {
		return false
	}
	if it.r.Upper.IsOpen() {
		it.invalidate()
		return false
	}
	it.r, it.node = it.tree.locateLower(it.r.Upper.FlipInclusion())
	return true
}

// Prev moves to the preceding range and reports whether one exists.
func (it *Iterator[T]) Prev() bool {
	if !it.Valid() {
		return false
	}
	if it.r.Lower.IsOpen() {
		it.invalidate()
		return false
	}
	it.r, it.node = it.tree.locateUpper(it.r.Lower.FlipInclusion())
	return true
}

func (it *Iterator[T]) invalidate() {
	it.node = InvalidNode
	it.r = timerange.Empty()
}
