package scene

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Document is the root of a scene file.
type Document struct {
	// Root names the sequence evaluated by default. Empty selects the first
	// sequence.
	Root      string        `toml:"root" json:"root,omitempty"`
	Sequences []SequenceDoc `toml:"sequence" json:"sequences"`
}

// SequenceDoc describes one sequence.
type SequenceDoc struct {
	Name     string       `toml:"name" json:"name"`
	Start    *float64     `toml:"start" json:"start,omitempty"`
	End      *float64     `toml:"end" json:"end,omitempty"`
	Tracks   []TrackDoc   `toml:"track" json:"tracks,omitempty"`
	Bindings []BindingDoc `toml:"binding" json:"bindings,omitempty"`
}

// BindingDoc describes an object binding and its tracks.
type BindingDoc struct {
	Name      string             `toml:"name" json:"name"`
	Spawnable bool               `toml:"spawnable" json:"spawnable,omitempty"`
	Props     map[string]float64 `toml:"props" json:"props,omitempty"`
	Tracks    []TrackDoc         `toml:"track" json:"tracks,omitempty"`
}

// TrackDoc describes one track.
type TrackDoc struct {
	Name     string `toml:"name" json:"name"`
	Kind     string `toml:"kind" json:"kind"`
	Blending string `toml:"blending" json:"blending,omitempty"`
	Method   string `toml:"method" json:"method,omitempty"`
	Group    string `toml:"group" json:"group,omitempty"`
	Priority int    `toml:"priority" json:"priority,omitempty"`
	// EvaluateInPreRoll and EvaluateInPostRoll default to true when unset.
	EvaluateInPreRoll  *bool        `toml:"evaluate_in_preroll" json:"evaluate_in_preroll,omitempty"`
	EvaluateInPostRoll *bool        `toml:"evaluate_in_postroll" json:"evaluate_in_postroll,omitempty"`
	Sections           []SectionDoc `toml:"section" json:"sections,omitempty"`
}

// SectionDoc describes one section. Sequence, when set, nests the named
// sequence.
type SectionDoc struct {
	Name            string   `toml:"name" json:"name,omitempty"`
	Start           *float64 `toml:"start" json:"start,omitempty"`
	End             *float64 `toml:"end" json:"end,omitempty"`
	Row             int      `toml:"row" json:"row,omitempty"`
	OverlapPriority int      `toml:"overlap_priority" json:"overlap_priority,omitempty"`
	Blendable       bool     `toml:"blendable" json:"blendable,omitempty"`
	PreRoll         float64  `toml:"preroll" json:"preroll,omitempty"`
	PostRoll        float64  `toml:"postroll" json:"postroll,omitempty"`
	Completion      string   `toml:"completion" json:"completion,omitempty"`
	Property        string   `toml:"property" json:"property,omitempty"`
	Keys            []KeyDoc `toml:"keys" json:"keys,omitempty"`
	Events          []KeyDoc `toml:"events" json:"events,omitempty"`

	Sequence    string  `toml:"sequence" json:"sequence,omitempty"`
	StartOffset float64 `toml:"start_offset" json:"start_offset,omitempty"`
	TimeScale   float64 `toml:"time_scale" json:"time_scale,omitempty"`
	Bias        int     `toml:"bias" json:"bias,omitempty"`
}

// KeyDoc is a keyframe or an event.
type KeyDoc struct {
	Time  float64 `toml:"time" json:"time"`
	Value float64 `toml:"value" json:"value"`
}

// Parse decodes a document from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &doc, nil
}

// ParseFile decodes the document at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Load parses and builds the document at path.
func Load(path string) (*Scene, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// RootName returns the name of the sequence evaluated by default.
func (d *Document) RootName() string {
	if d.Root != "" || len(d.Sequences) == 0 {
		return d.Root
	}
	return d.Sequences[0].Name
}
