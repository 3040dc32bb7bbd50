package evalcontext

import "moviescene/internal/timerange"

// Direction is the direction of play.
type Direction int8

const (
	Forwards Direction = iota
	Backwards
)

// PlayerStatus describes how the host reached the current time.
type PlayerStatus uint8

const (
	Stopped PlayerStatus = iota
	Playing
	Scrubbing
	Jumping
	Stepping
)

func (s PlayerStatus) String() string {
	switch s {
	case Playing:
		return "playing"
	case Scrubbing:
		return "scrubbing"
	case Jumping:
		return "jumping"
	case Stepping:
		return "stepping"
	default:
		return "stopped"
	}
}

// EvaluationRange is the time being evaluated together with the range swept
// since the previous evaluation.
type EvaluationRange struct {
	Time      float64
	Range     timerange.Range
	Direction Direction
}

// AtTime returns a range evaluating the single instant t.
func AtTime(t float64) EvaluationRange {
	return EvaluationRange{Time: t, Range: timerange.Point(t)}
}

// Swept returns the range covering the delta from previous to current. The
// previous time is excluded so consecutive sweeps never share a boundary.
func Swept(previous, current float64) EvaluationRange {
	switch {
	case current > previous:
		return EvaluationRange{
			Time:  current,
			Range: timerange.New(timerange.ExclusiveBound(previous), timerange.InclusiveBound(current)),
		}
	case current < previous:
		return EvaluationRange{
			Time:      current,
			Range:     timerange.New(timerange.InclusiveBound(current), timerange.ExclusiveBound(previous)),
			Direction: Backwards,
		}
	default:
		return AtTime(current)
	}
}

// Context is the time context every template evaluates against. Values are
// cheap to copy and every With method returns a modified copy.
type Context struct {
	EvaluationRange

	Status           PlayerStatus
	PreRoll          bool
	PostRoll         bool
	HierarchicalBias int
	HasJumped        bool

	// RootToSequence maps root time into the sequence the context is
	// currently expressed in.
	RootToSequence TimeTransform
}

// NewContext returns a root-space context.
func NewContext(r EvaluationRange, status PlayerStatus) Context {
	return Context{
		EvaluationRange: r,
		Status:          status,
		HasJumped:       status == Jumping,
		RootToSequence:  Identity(),
	}
}

// Transform re-expresses the context in a sequence reached from the current
// one through tr.
func (c Context) Transform(tr TimeTransform) Context {
	c.Time = tr.Apply(c.Time)
	c.Range = tr.ApplyRange(c.Range)
	if tr.Scale < 0 {
		if c.Direction == Forwards {
			c.Direction = Backwards
		} else {
			c.Direction = Forwards
		}
	}
	c.RootToSequence = c.RootToSequence.Then(tr)
	return c
}

// WithTransform re-expresses a root-space context through rootToSequence.
func (c Context) WithTransform(rootToSequence TimeTransform) Context {
	base := c
	base.RootToSequence = Identity()
	return base.Transform(rootToSequence)
}

// WithForcedTime pins evaluation to the single instant t.
func (c Context) WithForcedTime(t float64) Context {
	c.Time = t
	c.Range = timerange.Point(t)
	return c
}

// WithRoll reports whether the entry being evaluated is pre- or post-rolling.
func (c Context) WithRoll(preRoll, postRoll bool) Context {
	c.PreRoll = preRoll
	c.PostRoll = postRoll
	return c
}

// WithBias sets the hierarchical bias of the sequence being evaluated.
func (c Context) WithBias(bias int) Context {
	c.HierarchicalBias = bias
	return c
}

// Clamp restricts the swept range to r, keeping the current time.
func (c Context) Clamp(r timerange.Range) Context {
	c.Range = timerange.Intersection(c.Range, r)
	return c
}

// IsPreRoll reports whether the context is pre-rolling.
func (c Context) IsPreRoll() bool { return c.PreRoll }

// IsPostRoll reports whether the context is post-rolling.
func (c Context) IsPostRoll() bool { return c.PostRoll }
