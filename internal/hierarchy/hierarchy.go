package hierarchy

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/invariant"
	"moviescene/internal/sequence"
	"moviescene/internal/timerange"
)

// SubSequenceData places one nested sequence instance in root time.
type SubSequenceData struct {
	Sequence        sequence.Handle
	DeterministicID evalcontext.SequenceID
	// RootToSequence maps root time into the nested sequence's local time.
	RootToSequence evalcontext.TimeTransform
	// PlayRange, PreRollRange and PostRollRange are in the nested
	// sequence's local time.
	PlayRange        timerange.Range
	PreRollRange     timerange.Range
	PostRollRange    timerange.Range
	HierarchicalBias int
	SectionSignature uuid.UUID
	// SectionPath names the chain of sub-sections leading here, e.g.
	// "shots/shot_010".
	SectionPath string
}

// RootRange returns the range the instance evaluates over, pre- and
// post-roll included, expressed in root time.
func (d SubSequenceData) RootRange() timerange.Range {
	local := timerange.Hull(d.PreRollRange, timerange.Hull(d.PlayRange, d.PostRollRange))
	return d.RootToSequence.Inverse().ApplyRange(local)
}

// Node is one sequence instance's position in the tree.
type Node struct {
	Parent   evalcontext.SequenceID
	Children []evalcontext.SequenceID
}

// Hierarchy is the tree of nested sequence instances below a root.
type Hierarchy struct {
	nodes map[evalcontext.SequenceID]*Node
	subs  map[evalcontext.SequenceID]SubSequenceData
}

// New returns a hierarchy holding only the root.
func New() *Hierarchy {
	h := &Hierarchy{}
	h.Reset()
	return h
}

// Reset removes every nested instance.
func (h *Hierarchy) Reset() {
	h.nodes = map[evalcontext.SequenceID]*Node{
		evalcontext.RootSequenceID: {Parent: evalcontext.RootSequenceID},
	}
	h.subs = make(map[evalcontext.SequenceID]SubSequenceData)
}

// Add records data as instance id under parent. A parent that is not in the
// hierarchy is an invariant violation and the add is skipped.
func (h *Hierarchy) Add(data SubSequenceData, id, parent evalcontext.SequenceID) {
	if id == evalcontext.RootSequenceID {
		invariant.Check(false, "sub-sequence uses the root id", "parent", parent.String())
		return
	}
	parentNode, ok := h.nodes[parent]
	if !invariant.Check(ok, "sub-sequence parent missing", "id", id.String(), "parent", parent.String()) {
		return
	}
	if existing, ok := h.nodes[id]; ok && existing.Parent != parent {
		h.detach(id, existing.Parent)
		existing.Parent = parent
	}
	if _, ok := h.nodes[id]; !ok {
		h.nodes[id] = &Node{Parent: parent}
	}
	if !slices.Contains(parentNode.Children, id) {
		parentNode.Children = append(parentNode.Children, id)
	}
	h.subs[id] = data
}

func (h *Hierarchy) detach(id, parent evalcontext.SequenceID) {
	if p, ok := h.nodes[parent]; ok {
		p.Children = slices.DeleteFunc(p.Children, func(c evalcontext.SequenceID) bool { return c == id })
	}
}

// Remove drops id and every instance nested below it.
func (h *Hierarchy) Remove(id evalcontext.SequenceID) {
	if id == evalcontext.RootSequenceID {
		h.Reset()
		return
	}
	n, ok := h.nodes[id]
	if !ok {
		return
	}
	for _, child := range slices.Clone(n.Children) {
		h.Remove(child)
	}
	h.detach(id, n.Parent)
	delete(h.nodes, id)
	delete(h.subs, id)
}

// FindSubData returns the data of instance id.
func (h *Hierarchy) FindSubData(id evalcontext.SequenceID) (SubSequenceData, bool) {
	d, ok := h.subs[id]
	return d, ok
}

// FindNode returns the tree node of instance id.
func (h *Hierarchy) FindNode(id evalcontext.SequenceID) (Node, bool) {
	n, ok := h.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{Parent: n.Parent, Children: slices.Clone(n.Children)}, true
}

// Children returns the instances directly below id.
func (h *Hierarchy) Children(id evalcontext.SequenceID) []evalcontext.SequenceID {
	n, ok := h.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.Children)
}

// IDs returns every nested instance id in ascending order.
func (h *Hierarchy) IDs() []evalcontext.SequenceID {
	return slices.Sorted(maps.Keys(h.subs))
}

// Len returns the number of nested instances.
func (h *Hierarchy) Len() int { return len(h.subs) }

// Equal reports whether both hierarchies hold the same instances with the
// same sub-sequence data.
func (h *Hierarchy) Equal(other *Hierarchy) bool {
	if len(h.subs) != len(other.subs) {
		return false
	}
	for id, d := range h.subs {
		o, ok := other.subs[id]
		if !ok || o != d {
			return false
		}
		if h.nodes[id].Parent != other.nodes[id].Parent {
			return false
		}
	}
	return true
}

// Rebase returns the ID instance id would have in a hierarchy where the root
// of h is itself nested as newRoot. IDs are re-accumulated along the path
// from the root, so the result matches what generating the outer hierarchy
// directly produces. Unknown IDs are accumulated onto newRoot as they are.
func (h *Hierarchy) Rebase(id, newRoot evalcontext.SequenceID) evalcontext.SequenceID {
	if newRoot == evalcontext.RootSequenceID {
		return id
	}
	if id == evalcontext.RootSequenceID {
		return newRoot
	}
	var path []evalcontext.SequenceID
	for cur := id; cur != evalcontext.RootSequenceID; {
		data, ok := h.subs[cur]
		node, known := h.nodes[cur]
		if !ok || !known {
			return id.Accumulate(newRoot)
		}
		path = append(path, data.DeterministicID)
		cur = node.Parent
	}
	out := newRoot
	for i := len(path) - 1; i >= 0; i-- {
		out = path[i].Accumulate(out)
	}
	return out
}
