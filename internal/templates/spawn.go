package templates

import (
	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/segment"
)

// Spawn is the track implementation of spawn tracks: the binding's object
// exists while any section of the track evaluates, and is destroyed when the
// track stops evaluating.
type Spawn struct{}

var (
	_ evaltrack.TrackImplementation = Spawn{}
	_ evaltrack.SetupTearDown       = Spawn{}
)

// EvaluateTrack pushes a token spawning the object.
func (Spawn) EvaluateTrack(_ *evaltrack.Track, seg segment.Segment, _ evalcontext.Context, f evaltrack.Frame) {
	if len(seg.Impls) == 0 || f.Tokens == nil {
		return
	}
	f.TrackData().SetTrackData(f.Operand)
	f.Tokens.Add(evalcontext.TokenFunc(func(op evalcontext.Operand, _ evalcontext.PersistentData, p evalcontext.Player) {
		if reg := p.SpawnRegister(); reg != nil {
			reg.SpawnObject(op.ObjectBinding, op.SequenceID, p)
		}
	}))
}

// Setup implements evaltrack.SetupTearDown.
func (Spawn) Setup(evalcontext.PersistentData, evalcontext.Player) {}

// TearDown destroys the object spawned by the track.
func (Spawn) TearDown(data evalcontext.PersistentData, p evalcontext.Player) {
	v, ok := data.TrackData()
	if !ok {
		return
	}
	op, ok := v.(evalcontext.Operand)
	if !ok {
		return
	}
	if reg := p.SpawnRegister(); reg != nil {
		reg.DestroySpawnedObject(op.ObjectBinding, op.SequenceID, p)
	}
}
