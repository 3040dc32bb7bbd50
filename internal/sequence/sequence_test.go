package sequence_test

import (
	"testing"

	"moviescene/internal/sequence"
	"moviescene/internal/timerange"
)

func TestArenaHandlesAreGenerationChecked(t *testing.T) {
	arena := sequence.NewArena()
	first := arena.Add(sequence.New("first", timerange.HalfOpen(0, 10)))
	if seq, ok := arena.Resolve(first); !ok || seq.Name != "first" {
		t.Fatalf("Resolve(first) = %v, %v", seq, ok)
	}

	arena.Remove(first)
	if _, ok := arena.Resolve(first); ok {
		t.Fatal("removed handle still resolves")
	}

	second := arena.Add(sequence.New("second", timerange.HalfOpen(0, 10)))
	if _, ok := arena.Resolve(first); ok {
		t.Fatal("stale handle resolves to the slot's new occupant")
	}
	if seq, ok := arena.Resolve(second); !ok || seq.Name != "second" {
		t.Fatalf("Resolve(second) = %v, %v", seq, ok)
	}
	if h, ok := arena.Find("second"); !ok || h != second {
		t.Fatalf("Find(second) = %v, %v", h, ok)
	}
	if arena.Len() != 1 {
		t.Fatalf("Len() = %d", arena.Len())
	}
	var zero sequence.Handle
	if _, ok := arena.Resolve(zero); ok {
		t.Fatal("zero handle resolves")
	}
}

func TestMarkAsChangedPropagatesToOwners(t *testing.T) {
	seq := sequence.New("root", timerange.HalfOpen(0, 10))
	binding := seq.AddBinding(sequence.NewBinding("hero"))
	track := binding.AddTrack(sequence.NewTrack("x", "property"))
	section := track.AddSection(sequence.NewSection("s", timerange.HalfOpen(0, 5)))

	seqSig, trackSig := seq.Signature(), track.Signature()
	section.MarkAsChanged()
	if seq.Signature() == seqSig {
		t.Fatal("sequence signature unchanged")
	}
	if track.Signature() == trackSig {
		t.Fatal("track signature unchanged")
	}

	other := seq.AddMasterTrack(sequence.NewTrack("events", "event"))
	trackSig = track.Signature()
	other.MarkAsChanged()
	if track.Signature() != trackSig {
		t.Fatal("sibling track signature changed")
	}
}

func TestRollRanges(t *testing.T) {
	s := sequence.NewSection("s", timerange.HalfOpen(10, 20))
	s.PreRoll, s.PostRoll = 5, 2
	if got := s.PreRollRange(); !got.Equal(timerange.HalfOpen(5, 10)) {
		t.Fatalf("pre-roll = %s", got)
	}
	if got := s.PostRollRange(); !got.Equal(timerange.HalfOpen(20, 22)) {
		t.Fatalf("post-roll = %s", got)
	}
	open := sequence.NewSection("open", timerange.AtLeast(0))
	open.PostRoll = 3
	if !open.PostRollRange().IsEmpty() {
		t.Fatal("open section should have no post-roll")
	}
}

func TestParseBlending(t *testing.T) {
	for _, b := range []sequence.Blending{sequence.BlendRows, sequence.BlendHighPass, sequence.BlendNone} {
		got, ok := sequence.ParseBlending(b.String())
		if !ok || got != b {
			t.Fatalf("ParseBlending(%q) = %v, %v", b.String(), got, ok)
		}
	}
	if _, ok := sequence.ParseBlending("bogus"); ok {
		t.Fatal("bogus blending parsed")
	}
}
