package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"moviescene/internal/evalcontext"
	"moviescene/internal/field"
	"moviescene/internal/template"
)

type fieldEntryView struct {
	Range     string                   `json:"range"`
	Blocks    string                   `json:"blocks"`
	Tracks    []string                 `json:"tracks"`
	Sequences []evalcontext.SequenceID `json:"sequences"`
	Entities  int                      `json:"entities"`
}

type compileView struct {
	Sequence  string           `json:"sequence"`
	Signature string           `json:"signature"`
	Tracks    int              `json:"tracks"`
	Nested    int              `json:"nested_sequences"`
	Compiled  int              `json:"compiled"`
	Entries   []fieldEntryView `json:"entries"`
}

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var sequenceName string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "compile SCENE",
		Short: "Compile the evaluation field of a sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, logger, err := ctx.commandLogger(cmd, args[0])
			if err != nil {
				return err
			}
			e, err := openEngine(runCtx, ctx.configValue(), logger, args[0])
			if err != nil {
				return err
			}

			seq, tmpl, err := e.template(sequenceName)
			if err != nil {
				_ = e.close(runCtx)
				return err
			}
			compiled := e.compiler.Compile(tmpl)
			logger.Info("field compiled",
				slog.String("sequence", seq.Name),
				slog.Int("entries", tmpl.Field().Len()))

			view := compileView{
				Sequence:  seq.Name,
				Signature: seq.Signature().String(),
				Tracks:    len(tmpl.TrackIDs()),
				Nested:    tmpl.Hierarchy().Len(),
				Compiled:  compiled,
				Entries:   e.fieldEntries(tmpl),
			}
			if err := e.close(runCtx); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			printCompileView(cmd, view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sequenceName, "sequence", "s", "", "Sequence to compile (default: the scene root)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func (e *engine) fieldEntries(tmpl *template.Template) []fieldEntryView {
	f := tmpl.Field()
	out := make([]fieldEntryView, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		g := f.Group(i)
		meta := f.Metadata(i)
		out = append(out, fieldEntryView{
			Range:     f.Range(i).String(),
			Blocks:    formatBlocks(g),
			Tracks:    e.pointerNames(tmpl, g),
			Sequences: meta.ActiveSequences,
			Entities:  len(meta.ActiveEntities),
		})
	}
	return out
}

// pointerNames names every evaluated segment pointer of g as
// "sub-section path/track", or just the track for the template's own.
func (e *engine) pointerNames(tmpl *template.Template, g field.Group) []string {
	var out []string
	for block := range g.LUTIndices {
		for _, ptr := range g.EvalPtrs(block) {
			owner, prefix := tmpl, ""
			if ptr.SequenceID != evalcontext.RootSequenceID {
				data, ok := tmpl.Hierarchy().FindSubData(ptr.SequenceID)
				if !ok {
					out = append(out, ptr.String())
					continue
				}
				child, ok := e.compiler.AccessHandle(data.Sequence)
				if !ok {
					out = append(out, ptr.String())
					continue
				}
				owner, prefix = child, data.SectionPath+"/"
			}
			out = append(out, prefix+trackName(owner, ptr.TrackID))
		}
	}
	return out
}

func printCompileView(cmd *cobra.Command, view compileView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sequence:  %s\n", view.Sequence)
	fmt.Fprintf(out, "Signature: %s\n", view.Signature)
	fmt.Fprintf(out, "Tracks:    %d (%d nested sequences)\n", view.Tracks, view.Nested)
	fmt.Fprintf(out, "Entries:   %d\n\n", len(view.Entries))

	rows := make([][]string, 0, len(view.Entries))
	for _, entry := range view.Entries {
		rows = append(rows, []string{
			entry.Range,
			entry.Blocks,
			strings.Join(entry.Tracks, ", "),
			formatSequences(entry.Sequences),
			strconv.Itoa(entry.Entities),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Range", "Blocks", "Tracks", "Sequences", "Entities"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
}
