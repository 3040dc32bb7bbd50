package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/player"
	"moviescene/internal/sequence"
	"moviescene/internal/timerange"
)

var (
	// ErrUnknownSequence reports a reference to a sequence the document
	// does not define.
	ErrUnknownSequence = errors.New("unknown sequence")
	// ErrDuplicateSequence reports two sequences with the same name.
	ErrDuplicateSequence = errors.New("duplicate sequence")
	// ErrCycle reports sequences that nest each other.
	ErrCycle = errors.New("sequence nesting cycle")
	// ErrInvalid reports a malformed value.
	ErrInvalid = errors.New("invalid scene")
)

// namespace seeds every deterministic signature.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("moviescene/scene"))

// Scene is a built document.
type Scene struct {
	Arena *sequence.Arena
	Root  sequence.Handle

	doc       *Document
	sequences map[string]*sequence.Sequence
}

// Build creates every sequence of doc in a fresh arena.
func Build(doc *Document) (*Scene, error) {
	if len(doc.Sequences) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrInvalid)
	}
	s := &Scene{
		Arena:     sequence.NewArena(),
		doc:       doc,
		sequences: make(map[string]*sequence.Sequence, len(doc.Sequences)),
	}
	for _, sd := range doc.Sequences {
		if strings.TrimSpace(sd.Name) == "" {
			return nil, fmt.Errorf("%w: sequence without a name", ErrInvalid)
		}
		if _, ok := s.sequences[sd.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSequence, sd.Name)
		}
		seq := sequence.New(sd.Name, docRange(sd.Start, sd.End))
		s.Arena.Add(seq)
		s.sequences[sd.Name] = seq
	}
	if err := s.checkNesting(); err != nil {
		return nil, err
	}
	for _, sd := range doc.Sequences {
		if err := s.populate(s.sequences[sd.Name], sd); err != nil {
			return nil, fmt.Errorf("sequence %q: %w", sd.Name, err)
		}
	}
	root, ok := s.sequences[doc.RootName()]
	if !ok {
		return nil, fmt.Errorf("root: %w: %q", ErrUnknownSequence, doc.RootName())
	}
	s.Root = root.Handle()
	return s, nil
}

// Sequence returns the sequence called name.
func (s *Scene) Sequence(name string) (*sequence.Sequence, bool) {
	seq, ok := s.sequences[name]
	return seq, ok
}

// Names returns every sequence name in document order.
func (s *Scene) Names() []string {
	out := make([]string, 0, len(s.doc.Sequences))
	for _, sd := range s.doc.Sequences {
		out = append(out, sd.Name)
	}
	return out
}

// Document returns the document the scene was built from.
func (s *Scene) Document() *Document { return s.doc }

// DefineSpawnables registers every spawnable binding of the scene.
func (s *Scene) DefineSpawnables(reg *player.SpawnRegister) {
	for _, h := range s.Arena.All() {
		seq, _ := s.Arena.Resolve(h)
		for _, b := range seq.Bindings() {
			if b.Spawnable {
				reg.Define(b.ID, b.Name, b.SpawnProps)
			}
		}
	}
}

// BindObjects creates an object for every binding that is not spawnable and
// binds it in m. It returns the objects by binding name, qualified by the
// sequence name when the binding is not in the root.
func (s *Scene) BindObjects(m *player.Memory) map[string]*player.Object {
	out := make(map[string]*player.Object)
	for _, sd := range s.doc.Sequences {
		seq := s.sequences[sd.Name]
		for _, b := range seq.Bindings() {
			if b.Spawnable {
				continue
			}
			obj := player.NewObject(b.Name, b.SpawnProps)
			m.Bind(b.ID, obj)
			name := b.Name
			if seq.Handle() != s.Root {
				name = sd.Name + "/" + b.Name
			}
			out[name] = obj
		}
	}
	return out
}

// checkNesting rejects sub-sections naming unknown sequences and nesting
// cycles.
func (s *Scene) checkNesting() error {
	children := make(map[string][]string, len(s.doc.Sequences))
	for _, sd := range s.doc.Sequences {
		for _, td := range allTracks(sd) {
			for _, sec := range td.Sections {
				if sec.Sequence == "" {
					continue
				}
				if _, ok := s.sequences[sec.Sequence]; !ok {
					return fmt.Errorf("sequence %q track %q: %w: %q", sd.Name, td.Name, ErrUnknownSequence, sec.Sequence)
				}
				children[sd.Name] = append(children[sd.Name], sec.Sequence)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.doc.Sequences))
	var path []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			start := slices.Index(path, name)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path[start:], name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		path = append(path, name)
		for _, child := range children[name] {
			if err := visit(child); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}
	for _, sd := range s.doc.Sequences {
		if err := visit(sd.Name); err != nil {
			return err
		}
	}
	return nil
}

func allTracks(sd SequenceDoc) []TrackDoc {
	out := slices.Clone(sd.Tracks)
	for _, b := range sd.Bindings {
		out = append(out, b.Tracks...)
	}
	return out
}

// populate adds the tracks and bindings of sd to seq, then replaces every
// signature with one derived from the document.
func (s *Scene) populate(seq *sequence.Sequence, sd SequenceDoc) error {
	for i, td := range sd.Tracks {
		track, err := s.track(td)
		if err != nil {
			return fmt.Errorf("track %q: %w", td.Name, err)
		}
		seq.AddMasterTrack(track)
		sign(track, sd.Name, fmt.Sprintf("master/%d", i), td)
	}
	for _, bd := range sd.Bindings {
		b := &sequence.Binding{
			ID:         uuid.NewSHA1(namespace, []byte("binding:"+sd.Name+"/"+bd.Name)),
			Name:       bd.Name,
			Spawnable:  bd.Spawnable,
			SpawnProps: bd.Props,
		}
		seq.AddBinding(b)
		for i, td := range bd.Tracks {
			track, err := s.track(td)
			if err != nil {
				return fmt.Errorf("binding %q track %q: %w", bd.Name, td.Name, err)
			}
			b.AddTrack(track)
			sign(track, sd.Name, fmt.Sprintf("binding/%s/%d", bd.Name, i), td)
		}
	}
	seq.SetSignature(digest("sequence:"+sd.Name, sd))
	return nil
}

func (s *Scene) track(td TrackDoc) (*sequence.Track, error) {
	if td.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalid)
	}
	track := sequence.NewTrack(td.Name, td.Kind)
	track.EvaluationPriority = td.Priority
	track.EvaluationGroup = td.Group
	track.EvaluateInPreRoll = td.EvaluateInPreRoll == nil || *td.EvaluateInPreRoll
	track.EvaluateInPostRoll = td.EvaluateInPostRoll == nil || *td.EvaluateInPostRoll

	switch td.Method {
	case "", "static":
		track.Method = evaltrack.Static
	case "swept":
		track.Method = evaltrack.Swept
	default:
		return nil, fmt.Errorf("%w: method %q (want static or swept)", ErrInvalid, td.Method)
	}

	nests := slices.ContainsFunc(td.Sections, func(sec SectionDoc) bool { return sec.Sequence != "" })
	switch {
	case td.Blending != "":
		b, ok := sequence.ParseBlending(td.Blending)
		if !ok {
			return nil, fmt.Errorf("%w: blending %q", ErrInvalid, td.Blending)
		}
		track.Blending = b
	case nests:
		track.Blending = sequence.BlendNone
	}

	for _, sd := range td.Sections {
		section, err := s.section(sd)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sd.Name, err)
		}
		track.AddSection(section)
	}
	return track, nil
}

func (s *Scene) section(sd SectionDoc) (*sequence.Section, error) {
	r := docRange(sd.Start, sd.End)
	if r.IsEmpty() {
		return nil, fmt.Errorf("%w: empty range %s", ErrInvalid, r)
	}
	if sd.PreRoll < 0 || sd.PostRoll < 0 {
		return nil, fmt.Errorf("%w: negative roll", ErrInvalid)
	}
	section := sequence.NewSection(sd.Name, r)
	section.Row = sd.Row
	section.OverlapPriority = sd.OverlapPriority
	section.Blendable = sd.Blendable
	section.PreRoll = sd.PreRoll
	section.PostRoll = sd.PostRoll
	section.Property = sd.Property
	section.Keys = keys(sd.Keys)
	section.Events = keys(sd.Events)

	switch sd.Completion {
	case "", "keep":
		section.CompletionMode = evalcontext.KeepState
	case "restore":
		section.CompletionMode = evalcontext.RestoreState
	default:
		return nil, fmt.Errorf("%w: completion %q (want keep or restore)", ErrInvalid, sd.Completion)
	}

	if sd.Sequence != "" {
		child := s.sequences[sd.Sequence]
		section.Sub = &sequence.SubSection{
			Sequence:         child.Handle(),
			StartOffset:      sd.StartOffset,
			TimeScale:        sd.TimeScale,
			HierarchicalBias: sd.Bias,
		}
	}
	return section, nil
}

// sign replaces the random identities and signatures of track and its
// sections. A section's identity names its nested sequence instance, so it
// depends only on where the section sits in the document.
func sign(track *sequence.Track, seqName, path string, td TrackDoc) {
	base := "track:" + seqName + "/" + path
	for i, section := range track.Sections() {
		name := fmt.Sprintf("%s/section/%d", base, i)
		section.ID = uuid.NewSHA1(namespace, []byte(name))
		section.SetSignature(digest(name, td.Sections[i]))
	}
	track.SetSignature(digest(base, td))
}

func digest(name string, v any) uuid.UUID {
	// Documents only hold plain values, which always marshal.
	content, _ := json.Marshal(v)
	return uuid.NewSHA1(namespace, append([]byte(name+"\x00"), content...))
}

func keys(in []KeyDoc) []sequence.Key {
	if len(in) == 0 {
		return nil
	}
	out := make([]sequence.Key, len(in))
	for i, k := range in {
		out[i] = sequence.Key{Time: k.Time, Value: k.Value}
	}
	slices.SortStableFunc(out, func(a, b sequence.Key) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return out
}

// docRange is [start, end) with missing ends left open.
func docRange(start, end *float64) timerange.Range {
	lower, upper := timerange.OpenBound(), timerange.OpenBound()
	if start != nil {
		lower = timerange.InclusiveBound(*start)
	}
	if end != nil {
		upper = timerange.ExclusiveBound(*end)
	}
	return timerange.New(lower, upper)
}
