package evaltree

import (
	"iter"
	"slices"

	"moviescene/internal/timerange"
)

// NodeHandle indexes a node within a Tree.
type NodeHandle int32

// RootNode is the handle of the node spanning all time.
const RootNode NodeHandle = 0

// InvalidNode is returned by exhausted iterators.
const InvalidNode NodeHandle = -1

type node[T comparable] struct {
	r        timerange.Range
	parent   NodeHandle
	children []NodeHandle
	data     []T
}

// Tree stores payloads of type T against time ranges. The zero value is an
// empty tree ready to use.
type Tree[T comparable] struct {
	nodes []node[T]
}

// New returns an empty tree.
func New[T comparable]() *Tree[T] {
	t := &Tree[T]{}
	t.ensureRoot()
	return t
}

func (t *Tree[T]) ensureRoot() {
	if len(t.nodes) == 0 {
		t.nodes = append(t.nodes, node[T]{r: timerange.All(), parent: InvalidNode})
	}
}

// Reset removes every node and payload.
func (t *Tree[T]) Reset() {
	t.nodes = t.nodes[:0]
	t.ensureRoot()
}

// Len returns the number of nodes, including the root.
func (t *Tree[T]) Len() int {
	t.ensureRoot()
	return len(t.nodes)
}

// IsEmpty reports whether no payload has been added.
func (t *Tree[T]) IsEmpty() bool {
	t.ensureRoot()
	return len(t.nodes) == 1 && len(t.nodes[RootNode].data) == 0
}

// NodeRange returns the range a node was created for.
func (t *Tree[T]) NodeRange(h NodeHandle) timerange.Range {
	return t.nodes[h].r
}

// Parent returns the parent of h, or InvalidNode for the root.
func (t *Tree[T]) Parent(h NodeHandle) NodeHandle {
	return t.nodes[h].parent
}

// NodeData returns only the payloads attached directly to h.
func (t *Tree[T]) NodeData(h NodeHandle) []T {
	return t.nodes[h].data
}

// Add attaches payload to r.
func (t *Tree[T]) Add(r timerange.Range, payload T) {
	if r.IsEmpty() {
		return
	}
	t.ensureRoot()
	t.addRange(r, RootNode, func(h NodeHandle) {
		t.nodes[h].data = append(t.nodes[h].data, payload)
	})
}

// AddUnique attaches payload to r wherever it does not already apply through
// the node or one of its ancestors.
func (t *Tree[T]) AddUnique(r timerange.Range, payload T) {
	if r.IsEmpty() {
		return
	}
	t.ensureRoot()
	t.addRange(r, RootNode, func(h NodeHandle) {
		for existing := range t.AllData(h) {
			if existing == payload {
				return
			}
		}
		t.nodes[h].data = append(t.nodes[h].data, payload)
	})
}

func (t *Tree[T]) addRange(r timerange.Range, parent NodeHandle, apply func(NodeHandle)) {
	if r.ContainsRange(t.nodes[parent].r) {
		apply(parent)
		return
	}

	remaining := r
	for i := 0; i < len(t.nodes[parent].children) && !remaining.IsEmpty(); i++ {
		child := t.nodes[parent].children[i]
		childRange := t.nodes[child].r

		if before := remaining.Before(childRange); !before.IsEmpty() {
			t.insertChild(parent, i, before, apply)
			i++
		}
		if overlap := timerange.Intersection(remaining, childRange); !overlap.IsEmpty() {
			t.addRange(overlap, child, apply)
		}
		remaining = remaining.After(childRange)
	}

	if !remaining.IsEmpty() {
		t.insertChild(parent, len(t.nodes[parent].children), remaining, apply)
	}
}

func (t *Tree[T]) insertChild(parent NodeHandle, index int, r timerange.Range, apply func(NodeHandle)) {
	h := NodeHandle(len(t.nodes))
	t.nodes = append(t.nodes, node[T]{r: r, parent: parent})
	apply(h)
	t.nodes[parent].children = slices.Insert(t.nodes[parent].children, index, h)
}

// AllData yields the payloads of h followed by those of each ancestor up to
// the root.
func (t *Tree[T]) AllData(h NodeHandle) iter.Seq[T] {
	return func(yield func(T) bool) {
		for h != InvalidNode && int(h) < len(t.nodes) {
			for _, v := range t.nodes[h].data {
				if !yield(v) {
					return
				}
			}
			h = t.nodes[h].parent
		}
	}
}

// CollectAllData returns AllData(h) as a slice.
func (t *Tree[T]) CollectAllData(h NodeHandle) []T {
	return slices.Collect(t.AllData(h))
}

// locateLower finds the deepest node containing a range that starts at b and
// the maximal unique range inside it that contains b.
func (t *Tree[T]) locateLower(b timerange.Bound) (timerange.Range, NodeHandle) {
	t.ensureRoot()
	h := RootNode
	for {
		n := &t.nodes[h]
		lower, upper := n.r.Lower, n.r.Upper
		next := InvalidNode
		for _, c := range n.children {
			cr := t.nodes[c].r
			if cr.ContainsLowerBound(b) {
				next = c
				break
			}
			if timerange.CompareLower(cr.Lower, b) <= 0 {
				lower = cr.Upper.FlipInclusion()
				continue
			}
			upper = cr.Lower.FlipInclusion()
			break
		}
		if next == InvalidNode {
			return timerange.New(lower, upper), h
		}
		h = next
	}
}

// locateUpper is the mirror of locateLower for ranges ending at b.
func (t *Tree[T]) locateUpper(b timerange.Bound) (timerange.Range, NodeHandle) {
	t.ensureRoot()
	h := RootNode
	for {
		n := &t.nodes[h]
		lower, upper := n.r.Lower, n.r.Upper
		next := InvalidNode
		for _, c := range n.children {
			cr := t.nodes[c].r
			if cr.ContainsUpperBound(b) {
				next = c
				break
			}
			if timerange.CompareUpper(cr.Upper, b) <= 0 {
				lower = cr.Upper.FlipInclusion()
				continue
			}
			upper = cr.Lower.FlipInclusion()
			break
		}
		if next == InvalidNode {
			return timerange.New(lower, upper), h
		}
		h = next
	}
}

// Iterate returns an iterator positioned on the first range (starting at -inf).
func (t *Tree[T]) Iterate() *Iterator[T] {
	return t.IterateFromLowerBound(timerange.OpenBound())
}

// IterateFromLowerBound returns an iterator positioned on the unique range
// containing the start of a range beginning at b.
func (t *Tree[T]) IterateFromLowerBound(b timerange.Bound) *Iterator[T] {
	r, h := t.locateLower(b)
	return &Iterator[T]{tree: t, r: r, node: h}
}

// IterateFromTime returns an iterator positioned on the unique range containing t.
func (t *Tree[T]) IterateFromTime(time float64) *Iterator[T] {
	return t.IterateFromLowerBound(timerange.InclusiveBound(time))
}

// Ranges yields every unique range from -inf to +inf with its node.
func (t *Tree[T]) Ranges() iter.Seq2[timerange.Range, NodeHandle] {
	return func(yield func(timerange.Range, NodeHandle) bool) {
		for it := t.Iterate(); it.Valid(); it.Next() {
			if !yield(it.Range(), it.Node()) {
				return
			}
		}
	}
}
