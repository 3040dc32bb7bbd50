package instance

import (
	"log/slog"

	"moviescene/internal/evalcontext"
	"moviescene/internal/evaltrack"
	"moviescene/internal/field"
)

// callSetupTearDown runs the end-evaluation hooks of every entity the last
// frame activated that this frame does not, then the begin-evaluation hooks
// of every entity this frame newly activates. Teardown runs in reverse
// evaluation order, setup in evaluation order.
//
// It returns the entities whose track was removed from its template. Their
// end-evaluation hooks still run here, but their pre-animated state must be
// restored only after this frame's tokens have been applied.
func (i *Instance) callSetupTearDown(p evalcontext.Player, this field.Metadata) []evalcontext.EvaluationKey {
	added, expired := this.DiffEntities(i.lastFrame)

	var delayed []evalcontext.EvaluationKey
	for _, e := range expired {
		if !i.tearDown(e.Key, p) {
			delayed = append(delayed, e.Key)
			continue
		}
		restore(p, []evalcontext.EvaluationKey{e.Key})
	}
	i.releaseStaleTracks()
	for _, e := range added {
		i.setUp(e.Key, p)
	}

	i.counts.setUp += len(added)
	i.counts.tornDown += len(expired)
	i.stats.EntitiesSetUp += len(added)
	i.stats.EntitiesTornDown += len(expired)
	if len(delayed) > 0 {
		i.logger.Debug("delaying restore of stale entities", slog.Int("entities", len(delayed)))
	}
	return delayed
}

// tearDown runs the end-evaluation hook of key, falling back to the track
// its template removed. It reports false when the track is no longer live.
func (i *Instance) tearDown(key evalcontext.EvaluationKey, p evalcontext.Player) bool {
	live := true
	track, ok := i.FindTrack(key.SequenceID, key.TrackID)
	if !ok {
		live = false
		track, ok = i.findStaleTrack(key.SequenceID, key.TrackID)
	}
	if !ok {
		i.store.Reset(key)
		return false
	}
	f := i.frame(key.SequenceID, key.TrackID, track, p)
	if key.IsTrack() {
		track.TearDown(f)
	} else {
		track.TearDownSection(int(key.SectionIndex), f)
	}
	i.store.Reset(key)
	return live
}

func (i *Instance) findStaleTrack(seq evalcontext.SequenceID, id evalcontext.TrackIdentifier) (*evaltrack.Track, bool) {
	inst, ok := i.instance(seq)
	if !ok {
		return nil, false
	}
	return inst.tmpl.FindStaleTrack(id)
}

// releaseStaleTracks forgets the removed tracks of every template this
// frame touched once their entities have been torn down.
func (i *Instance) releaseStaleTracks() {
	if i.rootTmpl != nil {
		i.rootTmpl.ReleaseStaleTracks()
	}
	for _, inst := range i.instances {
		inst.tmpl.ReleaseStaleTracks()
	}
}

func (i *Instance) setUp(key evalcontext.EvaluationKey, p evalcontext.Player) {
	track, ok := i.FindTrack(key.SequenceID, key.TrackID)
	if !ok {
		return
	}
	f := i.frame(key.SequenceID, key.TrackID, track, p)
	if key.IsTrack() {
		track.Setup(f)
	} else {
		track.SetupSection(int(key.SectionIndex), f)
	}
}

// expireSequences reports every sequence instance the last frame activated
// and this frame does not to the spawn register.
func (i *Instance) expireSequences(p evalcontext.Player, this field.Metadata) {
	_, expired := this.DiffSequences(i.lastFrame)
	if len(expired) == 0 {
		return
	}
	var reg evalcontext.SpawnRegister
	if p != nil {
		reg = p.SpawnRegister()
	}
	if reg != nil {
		for _, id := range expired {
			reg.OnSequenceExpired(id, p)
		}
	}
	i.counts.expired += len(expired)
	i.stats.SequencesExpired += len(expired)
}
