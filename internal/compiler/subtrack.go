package compiler

import (
	"slices"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltree"
	"moviescene/internal/segment"
	"moviescene/internal/sequence"
	"moviescene/internal/template"
	"moviescene/internal/timerange"
)

// processSubTracks rebuilds tmpl's sub-section tree from seq and returns the
// hull of every range whose sub-section content changed.
func (g *Generator) processSubTracks(tmpl *template.Template, seq *sequence.Sequence) timerange.Range {
	tree := tmpl.SubSectionField()
	tree.Reset()
	ranges := make(map[uuid.UUID][]timerange.Range)
	for _, track := range subTracks(seq) {
		ProcessSubTrack(tree, track, ranges)
	}

	touched := diffSubSectionRanges(tmpl.SubSectionRanges(), ranges)
	tmpl.SetSubSectionRanges(ranges)
	return touched
}

// ProcessSubTrack adds the sub-sections of track to tree. Without blenders
// every sub-section range, plus its pre- and post-roll, goes in directly.
// With blenders the sub-sections are blended over the unique ranges of a
// scratch tree and adjacent identical results merged before being written.
// ranges receives, per section signature, the outer ranges written.
func ProcessSubTrack(tree *evaltree.Tree[template.SubSectionEntry], track *sequence.Track, ranges map[uuid.UUID][]timerange.Range) {
	var sections []*sequence.Section
	for _, s := range track.Sections() {
		if s.Sub != nil {
			sections = append(sections, s)
		}
	}
	if len(sections) == 0 {
		return
	}

	rows, blender := Blenders(track.Blending)
	if rows == nil && blender == nil {
		for _, s := range sections {
			id := evalcontext.SequenceIDFromGUID(s.ID)
			for _, part := range sectionParts(s) {
				if part.r.IsEmpty() {
					continue
				}
				tree.Add(part.r, template.SubSectionEntry{ID: id, Flags: part.flags})
				ranges[s.Signature()] = append(ranges[s.Signature()], part.r)
			}
		}
		return
	}

	var scratch evaltree.Tree[segment.SectionEvaluationData]
	props := make([]segment.SectionProperties, len(sections))
	for i, s := range sections {
		props[i] = segment.SectionProperties{
			Row:             s.Row,
			OverlapPriority: s.OverlapPriority,
			Start:           s.Range.Lower,
			Blendable:       s.Blendable,
		}
		for _, part := range sectionParts(s) {
			scratch.Add(part.r, segment.EvalFlagged(i, part.flags))
		}
	}

	var merged segment.Array
	for r, node := range scratch.Ranges() {
		var entries []segment.BlendEntry
		for d := range scratch.AllData(node) {
			entries = append(entries, segment.BlendEntry{Data: d, Section: &props[d.ImplIndex]})
		}
		blended := segment.Blend(entries, rows, blender)
		if len(blended) == 0 {
			continue
		}
		merged.Insert(segment.New(r, segment.Impls(blended)...))
	}

	for _, seg := range merged.Sorted() {
		for _, d := range seg.Impls {
			s := sections[d.ImplIndex]
			tree.Add(seg.Range, template.SubSectionEntry{
				ID:    evalcontext.SequenceIDFromGUID(s.ID),
				Flags: d.Flags,
			})
			ranges[s.Signature()] = append(ranges[s.Signature()], seg.Range)
		}
	}
}

type sectionPart struct {
	r     timerange.Range
	flags segment.Flags
}

func sectionParts(s *sequence.Section) []sectionPart {
	return []sectionPart{
		{r: s.Range, flags: segment.FlagNone},
		{r: s.PreRollRange(), flags: segment.FlagPreRoll},
		{r: s.PostRollRange(), flags: segment.FlagPostRoll},
	}
}

// diffSubSectionRanges returns the hull of every range present in only one
// of before and after.
func diffSubSectionRanges(before, after map[uuid.UUID][]timerange.Range) timerange.Range {
	touched := timerange.Empty()
	hull := func(rs []timerange.Range) {
		for _, r := range rs {
			touched = timerange.Hull(touched, r)
		}
	}
	for sig, old := range before {
		if rs, ok := after[sig]; !ok || !slices.EqualFunc(rs, old, timerange.Range.Equal) {
			hull(old)
			hull(rs)
		}
	}
	for sig, rs := range after {
		if _, ok := before[sig]; !ok {
			hull(rs)
		}
	}
	return touched
}
