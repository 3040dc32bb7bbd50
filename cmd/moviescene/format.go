package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
	"moviescene/internal/template"
)

var titleCaser = cases.Title(language.English)

// label title-cases a kind or mode name for display: "high-pass" becomes
// "High-Pass".
func label(s string) string {
	return titleCaser.String(s)
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// formatBlocks summarizes the flush blocks of g as "group:init/eval".
func formatBlocks(g field.Group) string {
	if g.IsEmpty() {
		return "-"
	}
	parts := make([]string, 0, len(g.LUTIndices))
	for _, lut := range g.LUTIndices {
		name := lut.Group
		if name == "" {
			name = "default"
		}
		parts = append(parts, fmt.Sprintf("%s:%d/%d", name, lut.NumInit, lut.NumEval))
	}
	return strings.Join(parts, " ")
}

func formatSequences(ids []evalcontext.SequenceID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// trackName returns the name of track id in tmpl, or its number when the
// track is gone.
func trackName(tmpl *template.Template, id evalcontext.TrackIdentifier) string {
	if track, ok := tmpl.FindTrack(id); ok && track.Name != "" {
		return track.Name
	}
	return fmt.Sprintf("#%d", id)
}
