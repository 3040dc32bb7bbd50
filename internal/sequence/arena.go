package sequence

import "fmt"

// Handle refers to a sequence stored in an Arena. The zero Handle is invalid.
type Handle struct {
	index      uint32
	generation uint32
}

// IsValid reports whether h was ever issued by an arena.
func (h Handle) IsValid() bool { return h.generation != 0 }

func (h Handle) String() string {
	if !h.IsValid() {
		return "sequence(invalid)"
	}
	return fmt.Sprintf("sequence(%d@%d)", h.index, h.generation)
}

type slot struct {
	generation uint32
	seq        *Sequence
}

// Arena owns sequences. Removing a sequence bumps the generation of its slot
// so outstanding handles stop resolving.
type Arena struct {
	slots []slot
	free  []uint32
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add stores seq and returns its handle.
func (a *Arena) Add(seq *Sequence) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[idx]
	s.generation++
	s.seq = seq
	h := Handle{index: idx, generation: s.generation}
	seq.handle = h
	return h
}

// Resolve returns the sequence h refers to.
func (a *Arena) Resolve(h Handle) (*Sequence, bool) {
	if !h.IsValid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.index]
	if s.generation != h.generation || s.seq == nil {
		return nil, false
	}
	return s.seq, true
}

// Remove drops the sequence h refers to. Stale handles are ignored.
func (a *Arena) Remove(h Handle) {
	if _, ok := a.Resolve(h); !ok {
		return
	}
	s := &a.slots[h.index]
	s.seq.handle = Handle{}
	s.seq = nil
	s.generation++
	a.free = append(a.free, h.index)
}

// Len returns the number of live sequences.
func (a *Arena) Len() int {
	return len(a.slots) - len(a.free)
}

// Find returns the handle of the live sequence called name.
func (a *Arena) Find(name string) (Handle, bool) {
	for _, s := range a.slots {
		if s.seq != nil && s.seq.Name == name {
			return s.seq.handle, true
		}
	}
	return Handle{}, false
}

// All returns the handles of every live sequence in slot order.
func (a *Arena) All() []Handle {
	out := make([]Handle, 0, a.Len())
	for _, s := range a.slots {
		if s.seq != nil {
			out = append(out, s.seq.handle)
		}
	}
	return out
}
