package main

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"moviescene/internal/evalcontext"
	"moviescene/internal/instance"
	"moviescene/internal/player"
)

type traceView struct {
	Kind    string `json:"kind"`
	Entity  string `json:"entity"`
	Time    string `json:"time"`
	Detail  string `json:"detail,omitempty"`
	PreRoll bool   `json:"preroll,omitempty"`
}

type frameView struct {
	Time  float64     `json:"time"`
	Trace []traceView `json:"trace"`
}

type evaluateView struct {
	Frames  []frameView                   `json:"frames"`
	Objects map[string]map[string]float64 `json:"objects"`
	Metrics instance.EvaluationMetrics    `json:"metrics"`
}

type evaluateOptions struct {
	from, to, step float64
	override       string
	jump           bool
	status         string
	jsonOut        bool
}

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate SCENE",
		Short: "Play a time range of a scene and print what was evaluated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if !cmd.Flags().Changed("step") {
				opts.step = cfg.Evaluation.FrameStep
			}
			if opts.step <= 0 {
				return errors.New("--step must be positive")
			}
			status, err := parseStatus(opts.status)
			if err != nil {
				return err
			}

			runCtx, logger, err := ctx.commandLogger(cmd, args[0])
			if err != nil {
				return err
			}
			e, err := openEngine(runCtx, cfg, logger, args[0])
			if err != nil {
				return err
			}
			view, evalErr := e.play(opts, status)
			if err := errors.Join(evalErr, e.close(runCtx)); err != nil {
				return err
			}
			logger.Info("evaluation complete",
				slog.Int("frames", view.Metrics.Frames),
				slog.Int("tokens", view.Metrics.TokensApplied))

			if opts.jsonOut {
				return writeJSON(cmd, view)
			}
			printEvaluateView(cmd, view)
			return nil
		},
	}

	cmd.Flags().Float64Var(&opts.from, "from", 0, "First evaluated time")
	cmd.Flags().Float64Var(&opts.to, "to", 0, "Last evaluated time")
	cmd.Flags().Float64Var(&opts.step, "step", 0, "Time between frames (default: evaluation.frame_step)")
	cmd.Flags().StringVar(&opts.override, "override", "", "Sub-section path of the nested sequence to evaluate as root")
	cmd.Flags().BoolVar(&opts.jump, "jump", false, "Evaluate every frame as a jump instead of sweeping from the previous one")
	cmd.Flags().StringVar(&opts.status, "status", "playing", "Player status: stopped, playing, scrubbing, jumping or stepping")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON")
	return cmd
}

func parseStatus(name string) (evalcontext.PlayerStatus, error) {
	for _, s := range []evalcontext.PlayerStatus{
		evalcontext.Stopped, evalcontext.Playing, evalcontext.Scrubbing, evalcontext.Jumping, evalcontext.Stepping,
	} {
		if s.String() == name {
			return s, nil
		}
	}
	return evalcontext.Stopped, fmt.Errorf("unsupported status %q", name)
}

// play evaluates every frame between opts.from and opts.to, then finishes
// the instance.
func (e *engine) play(opts evaluateOptions, status evalcontext.PlayerStatus) (evaluateView, error) {
	mem, objects := e.newPlayer()
	inst, err := e.newInstance(mem)
	if err != nil {
		return evaluateView{}, err
	}
	override, err := e.resolveOverride(opts.override)
	if err != nil {
		return evaluateView{}, err
	}

	var view evaluateView
	prev := opts.from
	for i := 0; ; i++ {
		t := opts.from + float64(i)*opts.step
		if t > opts.to+opts.step*1e-9 {
			break
		}
		r := evalcontext.Swept(prev, t)
		if i == 0 || opts.jump {
			r = evalcontext.AtTime(t)
		}
		ctx := evalcontext.NewContext(r, status)
		ctx.HasJumped = opts.jump && i > 0

		mem.ResetTrace()
		inst.Evaluate(ctx, mem, override)
		view.Frames = append(view.Frames, frameView{Time: t, Trace: traceViews(mem.TraceLog())})
		prev = t
	}

	mem.ResetTrace()
	inst.Finish(mem)
	if finish := traceViews(mem.TraceLog()); len(finish) > 0 {
		view.Frames = append(view.Frames, frameView{Time: prev, Trace: finish})
	}

	view.Objects = objectValues(objects)
	view.Metrics = inst.Metrics()
	return view, nil
}

// objectValues returns every property of every object by object name.
func objectValues(objects map[string]*player.Object) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(objects))
	for name, obj := range objects {
		props := make(map[string]float64)
		for _, p := range obj.PropertyNames() {
			props[p], _ = obj.Property(p)
		}
		out[name] = props
	}
	return out
}

func traceViews(entries []player.TraceEntry) []traceView {
	out := make([]traceView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, traceView{
			Kind:    entry.Kind,
			Entity:  entry.Key.String(),
			Time:    formatTime(entry.Time),
			Detail:  entry.Detail,
			PreRoll: entry.PreRoll,
		})
	}
	return out
}

func printEvaluateView(cmd *cobra.Command, view evaluateView) {
	out := cmd.OutOrStdout()
	var rows [][]string
	for _, frame := range view.Frames {
		for _, tr := range frame.Trace {
			rows = append(rows, []string{
				formatTime(frame.Time),
				label(tr.Kind),
				tr.Entity,
				tr.Time,
				tr.Detail,
				yesNo(tr.PreRoll),
			})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "Nothing was evaluated")
	} else {
		fmt.Fprintln(out, renderTable(out,
			[]string{"Frame", "Kind", "Entity", "Time", "Detail", "Pre-roll"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
	}

	if len(view.Objects) > 0 {
		var objRows [][]string
		for _, name := range slices.Sorted(maps.Keys(view.Objects)) {
			props := view.Objects[name]
			for _, p := range slices.Sorted(maps.Keys(props)) {
				objRows = append(objRows, []string{name, p, strconv.FormatFloat(props[p], 'g', 6, 64)})
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out, []string{"Object", "Property", "Value"}, objRows,
			[]columnAlignment{alignLeft, alignLeft, alignRight}))
	}

	m := view.Metrics
	fmt.Fprintf(out, "\nFrames: %d  Field hits: %d  Compiles: %d  Set up: %d  Torn down: %d  Tokens: %d\n",
		m.Frames, m.FieldHits, m.FieldCompiles, m.EntitiesSetUp, m.EntitiesTornDown, m.TokensApplied)
}
