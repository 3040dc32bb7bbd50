package timerange

// Range is an interval over float64 time.
type Range struct {
	Lower Bound `json:"lower"`
	Upper Bound `json:"upper"`
}

// New builds a range from two bounds.
func New(lower, upper Bound) Range {
	return Range{Lower: lower, Upper: upper}
}

// HalfOpen returns [lo, hi).
func HalfOpen(lo, hi float64) Range {
	return Range{Lower: InclusiveBound(lo), Upper: ExclusiveBound(hi)}
}

// Closed returns [lo, hi].
func Closed(lo, hi float64) Range {
	return Range{Lower: InclusiveBound(lo), Upper: InclusiveBound(hi)}
}

// Point returns the degenerate range [t, t].
func Point(t float64) Range {
	return Closed(t, t)
}

// All returns (-inf, +inf).
func All() Range {
	return Range{Lower: OpenBound(), Upper: OpenBound()}
}

// AtLeast returns [lo, +inf).
func AtLeast(lo float64) Range {
	return Range{Lower: InclusiveBound(lo), Upper: OpenBound()}
}

// LessThan returns (-inf, hi).
func LessThan(hi float64) Range {
	return Range{Lower: OpenBound(), Upper: ExclusiveBound(hi)}
}

// Empty returns the canonical empty range.
func Empty() Range {
	return Range{Lower: ExclusiveBound(0), Upper: ExclusiveBound(0)}
}

// IsEmpty reports whether the range contains no values.
func (r Range) IsEmpty() bool {
	if r.Lower.IsOpen() || r.Upper.IsOpen() {
		return false
	}
	if r.Lower.Value < r.Upper.Value {
		return false
	}
	if r.Lower.Value > r.Upper.Value {
		return true
	}
	return !(r.Lower.IsInclusive() && r.Upper.IsInclusive())
}

// IsDegenerate reports whether the range holds exactly one value.
func (r Range) IsDegenerate() bool {
	return r.Lower.IsInclusive() && r.Upper.IsInclusive() && r.Lower.Value == r.Upper.Value
}

// IsInfinite reports whether either end of the range is open.
func (r Range) IsInfinite() bool {
	return r.Lower.IsOpen() || r.Upper.IsOpen()
}

// Equal compares two ranges. All empty ranges are equal to each other.
func (r Range) Equal(other Range) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return r.IsEmpty() && other.IsEmpty()
	}
	return CompareLower(r.Lower, other.Lower) == 0 && CompareUpper(r.Upper, other.Upper) == 0
}

// Contains reports whether t lies inside the range.
func (r Range) Contains(t float64) bool {
	switch r.Lower.Type {
	case Inclusive:
		if t < r.Lower.Value {
			return false
		}
	case Exclusive:
		if t <= r.Lower.Value {
			return false
		}
	}
	switch r.Upper.Type {
	case Inclusive:
		if t > r.Upper.Value {
			return false
		}
	case Exclusive:
		if t >= r.Upper.Value {
			return false
		}
	}
	return true
}

// ContainsRange reports whether other lies completely inside r.
func (r Range) ContainsRange(other Range) bool {
	if other.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return CompareLower(r.Lower, other.Lower) <= 0 && CompareUpper(other.Upper, r.Upper) <= 0
}

// ContainsLowerBound reports whether a range starting at b would start inside r.
func (r Range) ContainsLowerBound(b Bound) bool {
	if r.IsEmpty() || CompareLower(r.Lower, b) > 0 {
		return false
	}
	return !New(b, r.Upper).IsEmpty()
}

// ContainsUpperBound reports whether a range ending at b would end inside r.
func (r Range) ContainsUpperBound(b Bound) bool {
	if r.IsEmpty() || CompareUpper(b, r.Upper) > 0 {
		return false
	}
	return !New(r.Lower, b).IsEmpty()
}

// Overlaps reports whether the two ranges share at least one value.
func (r Range) Overlaps(other Range) bool {
	return !Intersection(r, other).IsEmpty()
}

// Adjoins reports whether the two ranges touch without overlapping, so that
// their hull would contain no extra values.
func (r Range) Adjoins(other Range) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return touches(r.Upper, other.Lower) || touches(other.Upper, r.Lower)
}

func touches(upper, lower Bound) bool {
	if upper.IsOpen() || lower.IsOpen() || upper.Value != lower.Value {
		return false
	}
	return upper.Type != lower.Type
}

// Intersection returns the values shared by a and b.
func Intersection(a, b Range) Range {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	out := Range{Lower: MaxLower(a.Lower, b.Lower), Upper: MinUpper(a.Upper, b.Upper)}
	if out.IsEmpty() {
		return Empty()
	}
	return out
}

// Hull returns the smallest range containing both a and b.
func Hull(a, b Range) Range {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return Range{Lower: MinLower(a.Lower, b.Lower), Upper: MaxUpper(a.Upper, b.Upper)}
}

// HullTime widens r to include t.
func HullTime(r Range, t float64) Range {
	return Hull(r, Point(t))
}

// Before returns the part of r strictly before other's lower bound.
func (r Range) Before(other Range) Range {
	if other.Lower.IsOpen() {
		return Empty()
	}
	return Intersection(r, Range{Lower: OpenBound(), Upper: other.Lower.FlipInclusion()})
}

// After returns the part of r strictly after other's upper bound.
func (r Range) After(other Range) Range {
	if other.Upper.IsOpen() {
		return Empty()
	}
	return Intersection(r, Range{Lower: other.Upper.FlipInclusion(), Upper: OpenBound()})
}

// Map applies fn to both bound values. When fn reverses ordering (a negative
// time scale) the bounds are swapped so the result stays well formed.
func (r Range) Map(fn func(float64) float64) Range {
	if r.IsEmpty() {
		return Empty()
	}
	lower, upper := r.Lower.Map(fn), r.Upper.Map(fn)
	if fn(1) < fn(0) {
		lower, upper = upper, lower
	}
	return Range{Lower: lower, Upper: upper}
}

// String renders the range in interval notation, e.g. "[10, 20)".
func (r Range) String() string {
	if r.IsEmpty() {
		return "(empty)"
	}
	return r.Lower.lowerString() + ", " + r.Upper.upperString()
}
