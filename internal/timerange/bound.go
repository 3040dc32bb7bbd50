package timerange

import "strconv"

// BoundType describes how a bound treats its value.
type BoundType uint8

const (
	// Open bounds are unbounded (-inf for lower bounds, +inf for upper bounds).
	Open BoundType = iota
	// Inclusive bounds contain their value.
	Inclusive
	// Exclusive bounds stop just short of their value.
	Exclusive
)

// Bound is one end of a Range.
type Bound struct {
	Type  BoundType `json:"type"`
	Value float64   `json:"value,omitempty"`
}

// InclusiveBound returns a bound containing v.
func InclusiveBound(v float64) Bound { return Bound{Type: Inclusive, Value: v} }

// ExclusiveBound returns a bound excluding v.
func ExclusiveBound(v float64) Bound { return Bound{Type: Exclusive, Value: v} }

// OpenBound returns an unbounded bound.
func OpenBound() Bound { return Bound{Type: Open} }

// IsOpen reports whether the bound is unbounded.
func (b Bound) IsOpen() bool { return b.Type == Open }

// IsClosed reports whether the bound has a value.
func (b Bound) IsClosed() bool { return b.Type != Open }

// IsInclusive reports whether the bound contains its value.
func (b Bound) IsInclusive() bool { return b.Type == Inclusive }

// IsExclusive reports whether the bound excludes its value.
func (b Bound) IsExclusive() bool { return b.Type == Exclusive }

// FlipInclusion turns an inclusive bound into an exclusive one at the same
// value and vice versa. Open bounds are returned unchanged.
//
// Flipping the upper bound of one range yields the lower bound of the range
// that starts exactly where it stops.
func (b Bound) FlipInclusion() Bound {
	switch b.Type {
	case Inclusive:
		return ExclusiveBound(b.Value)
	case Exclusive:
		return InclusiveBound(b.Value)
	default:
		return b
	}
}

// Map applies fn to the bound's value, keeping its type. Open bounds are
// returned unchanged.
func (b Bound) Map(fn func(float64) float64) Bound {
	if b.IsOpen() {
		return b
	}
	return Bound{Type: b.Type, Value: fn(b.Value)}
}

// CompareLower orders two bounds interpreted as lower bounds.
func CompareLower(a, b Bound) int {
	switch {
	case a.IsOpen() && b.IsOpen():
		return 0
	case a.IsOpen():
		return -1
	case b.IsOpen():
		return 1
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Type == b.Type:
		return 0
	case a.IsInclusive():
		return -1
	default:
		return 1
	}
}

// CompareUpper orders two bounds interpreted as upper bounds.
func CompareUpper(a, b Bound) int {
	switch {
	case a.IsOpen() && b.IsOpen():
		return 0
	case a.IsOpen():
		return 1
	case b.IsOpen():
		return -1
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Type == b.Type:
		return 0
	case a.IsExclusive():
		return -1
	default:
		return 1
	}
}

// MinLower returns the earlier of two lower bounds.
func MinLower(a, b Bound) Bound {
	if CompareLower(a, b) <= 0 {
		return a
	}
	return b
}

// MaxLower returns the later of two lower bounds.
func MaxLower(a, b Bound) Bound {
	if CompareLower(a, b) >= 0 {
		return a
	}
	return b
}

// MinUpper returns the earlier of two upper bounds.
func MinUpper(a, b Bound) Bound {
	if CompareUpper(a, b) <= 0 {
		return a
	}
	return b
}

// MaxUpper returns the later of two upper bounds.
func MaxUpper(a, b Bound) Bound {
	if CompareUpper(a, b) >= 0 {
		return a
	}
	return b
}

func (b Bound) lowerString() string {
	switch b.Type {
	case Inclusive:
		return "[" + formatValue(b.Value)
	case Exclusive:
		return "(" + formatValue(b.Value)
	default:
		return "(-inf"
	}
}

func (b Bound) upperString() string {
	switch b.Type {
	case Inclusive:
		return formatValue(b.Value) + "]"
	case Exclusive:
		return formatValue(b.Value) + ")"
	default:
		return "+inf)"
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
