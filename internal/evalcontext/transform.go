package evalcontext

import "moviescene/internal/timerange"

// TimeTransform maps time linearly: out = in*Scale + Offset.
type TimeTransform struct {
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// Identity returns the transform that leaves time unchanged.
func Identity() TimeTransform {
	return TimeTransform{Scale: 1}
}

// SubSequenceTransform maps a parent's time into the child sequence played by
// a sub-section starting at sectionStart, playing the child from childStart
// at timeScale.
func SubSequenceTransform(sectionStart, childStart, timeScale float64) TimeTransform {
	return TimeTransform{Scale: timeScale, Offset: childStart - sectionStart*timeScale}
}

// Apply transforms t.
func (tr TimeTransform) Apply(t float64) float64 {
	return t*tr.Scale + tr.Offset
}

// ApplyRange transforms both ends of r.
func (tr TimeTransform) ApplyRange(r timerange.Range) timerange.Range {
	return r.Map(tr.Apply)
}

// Then returns the transform that applies tr followed by next.
func (tr TimeTransform) Then(next TimeTransform) TimeTransform {
	return TimeTransform{
		Scale:  tr.Scale * next.Scale,
		Offset: tr.Offset*next.Scale + next.Offset,
	}
}

// Inverse returns the transform undoing tr. A zero scale has no inverse and
// yields the identity.
func (tr TimeTransform) Inverse() TimeTransform {
	if tr.Scale == 0 {
		return Identity()
	}
	return TimeTransform{Scale: 1 / tr.Scale, Offset: -tr.Offset / tr.Scale}
}

// IsIdentity reports whether tr leaves time unchanged.
func (tr TimeTransform) IsIdentity() bool {
	return tr.Scale == 1 && tr.Offset == 0
}
