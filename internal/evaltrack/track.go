package evaltrack

import (
	"github.com/google/uuid"

	"moviescene/internal/evaltree"
	"moviescene/internal/segment"
	"moviescene/internal/timerange"
)

// Track is the compiled form of one authored track.
type Track struct {
	Name string
	// SourceSignature is the signature of the authored track this was
	// generated from.
	SourceSignature uuid.UUID
	// ObjectBinding is the binding the track animates, uuid.Nil for master
	// tracks.
	ObjectBinding      uuid.UUID
	EvaluationPriority int
	Method             Method
	// EvaluationGroup names the flush group the track evaluates in. Tracks in
	// different groups never share a flush.
	EvaluationGroup    string
	EvaluateInPreRoll  bool
	EvaluateInPostRoll bool

	RowBlender   segment.RowBlender
	TrackBlender segment.TrackBlender
	Impl         TrackImplementation

	sections []Section
	tree     evaltree.Tree[segment.SectionEvaluationData]
	segments segment.Array
}

// New returns a static track using the default row blender and a row ordered
// track blender.
func New(name string) *Track {
	return &Track{
		Name:         name,
		RowBlender:   segment.DefaultRowBlender{},
		TrackBlender: segment.SortByRowBlender{},
	}
}

// AddSection appends a section template and returns its impl index.
func (t *Track) AddSection(s Section) int {
	t.sections = append(t.sections, s)
	return len(t.sections) - 1
}

// Sections returns the section templates in impl order.
func (t *Track) Sections() []Section { return t.sections }

// Section returns section impl.
func (t *Track) Section(impl int) (Section, bool) {
	if impl < 0 || impl >= len(t.sections) {
		return Section{}, false
	}
	return t.sections[impl], true
}

// AddTreeData records that d applies over r.
func (t *Track) AddTreeData(r timerange.Range, d segment.SectionEvaluationData) {
	t.tree.Add(r, d)
}

// AddTreeDataUnique records that d applies over r unless an enclosing range
// already carries it.
func (t *Track) AddTreeDataUnique(r timerange.Range, d segment.SectionEvaluationData) {
	t.tree.AddUnique(r, d)
}

// AddSectionRanges adds the tree data for section impl: its nominal range,
// plus pre-roll and post-roll ranges flagged accordingly. Empty roll ranges
// are skipped.
func (t *Track) AddSectionRanges(impl int, nominal, preRoll, postRoll timerange.Range) {
	t.AddTreeData(nominal, segment.Eval(impl))
	if !preRoll.IsEmpty() {
		t.AddTreeData(preRoll, segment.EvalFlagged(impl, segment.FlagPreRoll))
	}
	if !postRoll.IsEmpty() {
		t.AddTreeData(postRoll, segment.EvalFlagged(impl, segment.FlagPostRoll))
	}
}

// Tree exposes the raw section tree.
func (t *Track) Tree() *evaltree.Tree[segment.SectionEvaluationData] { return &t.tree }

// MatchesRoll reports whether the track evaluates in the given roll state.
func (t *Track) MatchesRoll(preRoll, postRoll bool) bool {
	return (!preRoll || t.EvaluateInPreRoll) && (!postRoll || t.EvaluateInPostRoll)
}

// RequiresInitialization reports whether an initialization pass must run
// before the track evaluates.
func (t *Track) RequiresInitialization() bool {
	if t.Impl != nil {
		_, ok := t.Impl.(TrackInitializer)
		return ok
	}
	for _, s := range t.sections {
		if _, ok := s.Template.(Initializer); ok {
			return true
		}
	}
	return false
}

// FillsEmptySpace reports whether the track produces segments where no
// section applies, so that it participates in the whole timeline.
func (t *Track) FillsEmptySpace() bool {
	if t.TrackBlender == nil {
		return false
	}
	return t.TrackBlender.CanFillEmptySpace() || t.TrackBlender.AllowEmptySegments()
}

// FieldRanges returns the ranges over which the track contributes: the whole
// timeline for tracks that fill empty space, otherwise the merged ranges of
// the tree that carry data.
func (t *Track) FieldRanges() []timerange.Range {
	if t.FillsEmptySpace() {
		return []timerange.Range{timerange.All()}
	}
	var out []timerange.Range
	for r, h := range t.tree.Ranges() {
		if !hasData(&t.tree, h) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Adjoins(r) {
			out[n-1] = timerange.Hull(out[n-1], r)
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasData(tree *evaltree.Tree[segment.SectionEvaluationData], h evaltree.NodeHandle) bool {
	for range tree.AllData(h) {
		return true
	}
	return false
}
