package segment

import (
	"fmt"
	"strings"
)

// Flags mark entries that run outside their section's nominal range.
type Flags uint8

const (
	FlagNone     Flags = 0
	FlagPreRoll  Flags = 1 << 0
	FlagPostRoll Flags = 1 << 1
)

// IsPreRoll reports whether the pre-roll flag is set.
func (f Flags) IsPreRoll() bool { return f&FlagPreRoll != 0 }

// IsPostRoll reports whether the post-roll flag is set.
func (f Flags) IsPostRoll() bool { return f&FlagPostRoll != 0 }

// String renders the flag set, e.g. "preroll|postroll".
func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	if f.IsPreRoll() {
		parts = append(parts, "preroll")
	}
	if f.IsPostRoll() {
		parts = append(parts, "postroll")
	}
	return strings.Join(parts, "|")
}

// SectionEvaluationData identifies which section template of a track runs,
// at what time and under which rolling condition.
type SectionEvaluationData struct {
	ImplIndex  int     `json:"impl"`
	ForcedTime float64 `json:"forced_time,omitempty"`
	HasForced  bool    `json:"has_forced,omitempty"`
	Flags      Flags   `json:"flags,omitempty"`
}

// Eval returns data for impl evaluated at the context time.
func Eval(impl int) SectionEvaluationData {
	return SectionEvaluationData{ImplIndex: impl}
}

// EvalFlagged returns data for impl carrying flags.
func EvalFlagged(impl int, flags Flags) SectionEvaluationData {
	return SectionEvaluationData{ImplIndex: impl, Flags: flags}
}

// EvalForced returns data for impl always evaluated at t.
func EvalForced(impl int, t float64) SectionEvaluationData {
	return SectionEvaluationData{ImplIndex: impl, ForcedTime: t, HasForced: true}
}

// Time returns the time the entry evaluates at given the context time.
func (d SectionEvaluationData) Time(contextTime float64) float64 {
	if d.HasForced {
		return d.ForcedTime
	}
	return contextTime
}

// IsPreRoll reports whether the entry is a pre-roll entry.
func (d SectionEvaluationData) IsPreRoll() bool { return d.Flags.IsPreRoll() }

// IsPostRoll reports whether the entry is a post-roll entry.
func (d SectionEvaluationData) IsPostRoll() bool { return d.Flags.IsPostRoll() }

func (d SectionEvaluationData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", d.ImplIndex)
	if d.HasForced {
		fmt.Fprintf(&b, "@%g", d.ForcedTime)
	}
	if d.Flags != FlagNone {
		fmt.Fprintf(&b, "[%s]", d.Flags)
	}
	return b.String()
}
