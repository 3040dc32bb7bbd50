package hierarchy_test

import (
	"os"
	"slices"
	"testing"

	"moviescene/internal/evalcontext"
	"moviescene/internal/hierarchy"
	"moviescene/internal/invariant"
	"moviescene/internal/timerange"
)

func TestMain(m *testing.M) {
	invariant.Strict = true
	os.Exit(m.Run())
}

func TestRemoveDropsDescendants(t *testing.T) {
	h := hierarchy.New()
	h.Add(hierarchy.SubSequenceData{SectionPath: "a"}, 1, evalcontext.RootSequenceID)
	h.Add(hierarchy.SubSequenceData{SectionPath: "a/b"}, 2, 1)
	h.Add(hierarchy.SubSequenceData{SectionPath: "a/b/c"}, 3, 2)
	h.Add(hierarchy.SubSequenceData{SectionPath: "d"}, 4, evalcontext.RootSequenceID)

	if !slices.Equal(h.IDs(), []evalcontext.SequenceID{1, 2, 3, 4}) {
		t.Fatalf("ids = %v", h.IDs())
	}

	h.Remove(2)
	if !slices.Equal(h.IDs(), []evalcontext.SequenceID{1, 4}) {
		t.Fatalf("ids after remove = %v", h.IDs())
	}
	if _, ok := h.FindSubData(3); ok {
		t.Fatal("grandchild survived removal")
	}
	if children := h.Children(1); len(children) != 0 {
		t.Fatalf("parent still lists removed child: %v", children)
	}
	if children := h.Children(evalcontext.RootSequenceID); !slices.Equal(children, []evalcontext.SequenceID{1, 4}) {
		t.Fatalf("root children = %v", children)
	}
}

func TestAddWithoutParentPanicsInStrictMode(t *testing.T) {
	h := hierarchy.New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected missing parent to panic")
		}
	}()
	h.Add(hierarchy.SubSequenceData{}, 5, 99)
}

func TestRootRangeInvertsTransform(t *testing.T) {
	d := hierarchy.SubSequenceData{
		RootToSequence: evalcontext.SubSequenceTransform(100, 0, 2),
		PlayRange:      timerange.HalfOpen(0, 20),
	}
	if got := d.RootRange(); !got.Equal(timerange.HalfOpen(100, 110)) {
		t.Fatalf("root range = %s", got)
	}
}

func TestRootRangeIncludesRolls(t *testing.T) {
	d := hierarchy.SubSequenceData{
		RootToSequence: evalcontext.SubSequenceTransform(100, 0, 1),
		PlayRange:      timerange.HalfOpen(0, 10),
		PreRollRange:   timerange.HalfOpen(-5, 0),
		PostRollRange:  timerange.HalfOpen(10, 12),
	}
	if got := d.RootRange(); !got.Equal(timerange.HalfOpen(95, 112)) {
		t.Fatalf("root range = %s", got)
	}
}

func TestRebaseMatchesDirectAccumulation(t *testing.T) {
	const childLocal, grandLocal evalcontext.SequenceID = 11, 12
	child := childLocal.Accumulate(evalcontext.RootSequenceID)
	grand := grandLocal.Accumulate(child)

	h := hierarchy.New()
	h.Add(hierarchy.SubSequenceData{DeterministicID: childLocal}, child, evalcontext.RootSequenceID)
	h.Add(hierarchy.SubSequenceData{DeterministicID: grandLocal}, grand, child)

	const outer evalcontext.SequenceID = 500
	want := grandLocal.Accumulate(childLocal.Accumulate(outer))
	if got := h.Rebase(grand, outer); got != want {
		t.Fatalf("Rebase = %v, want %v", got, want)
	}
	if got := h.Rebase(evalcontext.RootSequenceID, outer); got != outer {
		t.Fatalf("root rebased to %v", got)
	}
	if got := h.Rebase(grand, evalcontext.RootSequenceID); got != grand {
		t.Fatalf("rebase onto root changed id to %v", got)
	}
}
