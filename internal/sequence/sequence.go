package sequence

import (
	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/timerange"
)

// Sequence is a timeline of master tracks and object bindings.
type Sequence struct {
	Name      string
	PlayRange timerange.Range

	signature    uuid.UUID
	handle       Handle
	masterTracks []*Track
	bindings     []*Binding
}

// New returns an empty sequence with a fresh signature.
func New(name string, playRange timerange.Range) *Sequence {
	return &Sequence{Name: name, PlayRange: playRange, signature: uuid.New()}
}

// Handle returns the sequence's arena handle, invalid when it is not stored
// in an arena.
func (s *Sequence) Handle() Handle { return s.handle }

// Signature changes whenever anything in the sequence changes.
func (s *Sequence) Signature() uuid.UUID { return s.signature }

// SetSignature replaces the signature without propagating.
func (s *Sequence) SetSignature(sig uuid.UUID) { s.signature = sig }

// MarkAsChanged regenerates the signature.
func (s *Sequence) MarkAsChanged() { s.signature = uuid.New() }

// MasterTracks returns the tracks not bound to any object.
func (s *Sequence) MasterTracks() []*Track { return s.masterTracks }

// Bindings returns the object bindings.
func (s *Sequence) Bindings() []*Binding { return s.bindings }

// AddMasterTrack appends t as a master track.
func (s *Sequence) AddMasterTrack(t *Track) *Track {
	t.owner = s
	s.masterTracks = append(s.masterTracks, t)
	s.MarkAsChanged()
	return t
}

// AddBinding appends b.
func (s *Sequence) AddBinding(b *Binding) *Binding {
	b.owner = s
	for _, t := range b.tracks {
		t.owner = s
	}
	s.bindings = append(s.bindings, b)
	s.MarkAsChanged()
	return b
}

// RemoveTrack removes t from the master tracks or whichever binding holds it.
func (s *Sequence) RemoveTrack(t *Track) bool {
	if removeTrack(&s.masterTracks, t) {
		s.MarkAsChanged()
		return true
	}
	for _, b := range s.bindings {
		if removeTrack(&b.tracks, t) {
			s.MarkAsChanged()
			return true
		}
	}
	return false
}

func removeTrack(tracks *[]*Track, t *Track) bool {
	for i, candidate := range *tracks {
		if candidate == t {
			*tracks = append((*tracks)[:i], (*tracks)[i+1:]...)
			t.owner = nil
			return true
		}
	}
	return false
}

// Binding is a set of tracks animating one object.
type Binding struct {
	ID   uuid.UUID
	Name string
	// Spawnable bindings own their object: it is spawned by the sequence's
	// spawn track rather than found in the host.
	Spawnable  bool
	SpawnProps map[string]float64

	owner  *Sequence
	tracks []*Track
}

// NewBinding returns a binding with a random id.
func NewBinding(name string) *Binding {
	return &Binding{ID: uuid.New(), Name: name}
}

// Tracks returns the binding's tracks.
func (b *Binding) Tracks() []*Track { return b.tracks }

// AddTrack appends t.
func (b *Binding) AddTrack(t *Track) *Track {
	t.owner = b.owner
	b.tracks = append(b.tracks, t)
	if b.owner != nil {
		b.owner.MarkAsChanged()
	}
	return t
}

// Blending selects the blenders a track compiles with.
type Blending uint8

const (
	// BlendRows keeps the highest priority section per row and evaluates
	// rows in order.
	BlendRows Blending = iota
	// BlendNearest is BlendRows that fills empty time with the nearest section.
	BlendNearest
	// BlendHighPass evaluates only the lowest row present.
	BlendHighPass
	// BlendStartTime orders sections by start time, as camera cuts do.
	BlendStartTime
	// BlendPriority orders sections by overlap priority.
	BlendPriority
	// BlendPriorityAllowEmpty is BlendPriority that keeps empty segments.
	BlendPriorityAllowEmpty
	// BlendNone compiles without row or track blending.
	BlendNone
)

var blendingNames = map[Blending]string{
	BlendRows:               "rows",
	BlendNearest:            "nearest",
	BlendHighPass:           "high-pass",
	BlendStartTime:          "start-time",
	BlendPriority:           "priority",
	BlendPriorityAllowEmpty: "priority-allow-empty",
	BlendNone:               "none",
}

func (b Blending) String() string {
	if name, ok := blendingNames[b]; ok {
		return name
	}
	return "unknown"
}

// ParseBlending returns the Blending called name.
func ParseBlending(name string) (Blending, bool) {
	for b, n := range blendingNames {
		if n == name {
			return b, true
		}
	}
	return BlendRows, false
}

// Track is an authored track.
type Track struct {
	Name               string
	Kind               string
	EvaluationPriority int
	Method             evaltrack.Method
	EvaluationGroup    string
	EvaluateInPreRoll  bool
	EvaluateInPostRoll bool
	Blending           Blending

	signature uuid.UUID
	owner     *Sequence
	sections  []*Section
}

// NewTrack returns an empty track of kind with a fresh signature.
func NewTrack(name, kind string) *Track {
	return &Track{Name: name, Kind: kind, signature: uuid.New()}
}

// Signature changes whenever the track or one of its sections changes.
func (t *Track) Signature() uuid.UUID { return t.signature }

// SetSignature replaces the signature without propagating.
func (t *Track) SetSignature(sig uuid.UUID) { t.signature = sig }

// MarkAsChanged regenerates the track's signature and its sequence's.
func (t *Track) MarkAsChanged() {
	t.signature = uuid.New()
	if t.owner != nil {
		t.owner.MarkAsChanged()
	}
}

// Sections returns the track's sections.
func (t *Track) Sections() []*Section { return t.sections }

// AddSection appends s.
func (t *Track) AddSection(s *Section) *Section {
	s.owner = t
	t.sections = append(t.sections, s)
	t.MarkAsChanged()
	return s
}

// IsSubTrack reports whether the track nests sequences.
func (t *Track) IsSubTrack() bool {
	for _, s := range t.sections {
		if s.Sub != nil {
			return true
		}
	}
	return false
}

// Key is one keyframe of a section's curve.
type Key struct {
	Time  float64
	Value float64
}

// SubSection nests a sequence inside the section's range.
type SubSection struct {
	Sequence Handle
	// StartOffset is the child time at which the section starts playing.
	StartOffset      float64
	TimeScale        float64
	HierarchicalBias int
}

// Section is an authored section.
type Section struct {
	Name            string
	Range           timerange.Range
	Row             int
	OverlapPriority int
	Blendable       bool
	// PreRoll and PostRoll are durations evaluated before and after Range.
	PreRoll        float64
	PostRoll       float64
	CompletionMode evalcontext.CompletionMode

	Property string
	Keys     []Key
	Events   []Key
	Sub      *SubSection

	// ID is the section's identity. Unlike the signature it never changes,
	// so nested sequence instances keep their IDs across edits.
	ID uuid.UUID

	signature uuid.UUID
	owner     *Track
}

// NewSection returns a section over r with a fresh identity and signature.
func NewSection(name string, r timerange.Range) *Section {
	return &Section{Name: name, Range: r, ID: uuid.New(), signature: uuid.New()}
}

// Signature changes whenever the section changes.
func (s *Section) Signature() uuid.UUID { return s.signature }

// SetSignature replaces the signature without propagating.
func (s *Section) SetSignature(sig uuid.UUID) { s.signature = sig }

// MarkAsChanged regenerates the section's signature and its owners'.
func (s *Section) MarkAsChanged() {
	s.signature = uuid.New()
	if s.owner != nil {
		s.owner.MarkAsChanged()
	}
}

// PreRollRange returns the range evaluated before the section starts.
func (s *Section) PreRollRange() timerange.Range {
	if s.PreRoll <= 0 || s.Range.Lower.IsOpen() {
		return timerange.Empty()
	}
	start := s.Range.Lower
	return timerange.New(timerange.InclusiveBound(start.Value-s.PreRoll), start.FlipInclusion())
}

// PostRollRange returns the range evaluated after the section ends.
func (s *Section) PostRollRange() timerange.Range {
	if s.PostRoll <= 0 || s.Range.Upper.IsOpen() {
		return timerange.Empty()
	}
	end := s.Range.Upper
	return timerange.New(end.FlipInclusion(), timerange.ExclusiveBound(end.Value+s.PostRoll))
}

// InnerTransform maps the section's outer time into the nested sequence.
func (s *SubSection) InnerTransform(sectionStart float64) evalcontext.TimeTransform {
	scale := s.TimeScale
	if scale == 0 {
		scale = 1
	}
	return evalcontext.SubSequenceTransform(sectionStart, s.StartOffset, scale)
}
