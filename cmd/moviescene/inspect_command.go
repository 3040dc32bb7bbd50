package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"moviescene/internal/evalcontext"
	"moviescene/internal/instance"
	"moviescene/internal/logging"
	"moviescene/internal/player"
)

const shutdownTimeout = 5 * time.Second

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "inspect SCENE",
		Short: "Serve the compiled state of a scene over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if listen == "" {
				listen = cfg.Inspect.Listen
			}
			runCtx, logger, err := ctx.commandLogger(cmd, args[0])
			if err != nil {
				return err
			}
			e, err := openEngine(runCtx, cfg, logger, args[0])
			if err != nil {
				return err
			}
			insp, err := newInspector(e)
			if err != nil {
				_ = e.close(runCtx)
				return err
			}

			sigCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			serveErr := serveInspector(sigCtx, listen, insp, logger, cmd)
			insp.finish()
			return errors.Join(serveErr, e.close(runCtx))
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default: inspect.listen)")
	return cmd
}

func serveInspector(ctx context.Context, addr string, insp *inspector, logger *slog.Logger, cmd *cobra.Command) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: insp.routes(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Inspecting on http://%s\n", ln.Addr())
	logger.Info("inspect server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("inspect server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown inspect server: %w", err)
	}
	logger.Info("inspect server stopped")
	return nil
}

// inspector serves one engine. Evaluation requests share a single instance
// and player, so consecutive requests behave like consecutive frames.
type inspector struct {
	e      *engine
	logger *slog.Logger

	mu      sync.Mutex
	mem     *player.Memory
	objects map[string]*player.Object
	inst    *instance.Instance
	last    float64
	played  bool
}

func newInspector(e *engine) (*inspector, error) {
	mem, objects := e.newPlayer()
	inst, err := e.newInstance(mem)
	if err != nil {
		return nil, err
	}
	return &inspector{
		e:       e,
		logger:  logging.NewComponentLogger(e.logger, "inspect"),
		mem:     mem,
		objects: objects,
		inst:    inst,
	}, nil
}

func (i *inspector) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/metrics", i.e.metrics.Handler().ServeHTTP)
	r.Get("/sequences", i.listSequences)
	r.Route("/sequences/{name}", func(r chi.Router) {
		r.Get("/field", i.getField)
		r.Get("/tracks", i.getTracks)
	})
	r.Post("/evaluate", i.evaluate)
	return r
}

func (i *inspector) finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.inst.Finish(i.mem)
}

type sequenceView struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Root      bool   `json:"root"`
	Tracks    int    `json:"tracks"`
	Nested    int    `json:"nested_sequences"`
	Entries   int    `json:"field_entries"`
}

func (i *inspector) listSequences(w http.ResponseWriter, _ *http.Request) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var out []sequenceView
	for _, name := range i.e.scene.Names() {
		seq, tmpl, err := i.e.template(name)
		if err != nil {
			continue
		}
		out = append(out, sequenceView{
			Name:      name,
			Signature: seq.Signature().String(),
			Root:      seq.Handle() == i.e.scene.Root,
			Tracks:    len(tmpl.TrackIDs()),
			Nested:    tmpl.Hierarchy().Len(),
			Entries:   tmpl.Field().Len(),
		})
	}
	i.writeJSON(w, http.StatusOK, out)
}

// getField returns a sequence's field, compiling it fully first when
// ?compile=true.
func (i *inspector) getField(w http.ResponseWriter, r *http.Request) {
	i.mu.Lock()
	defer i.mu.Unlock()

	seq, tmpl, err := i.e.template(chi.URLParam(r, "name"))
	if err != nil {
		i.writeError(w, http.StatusNotFound, err)
		return
	}
	compiled := 0
	if r.URL.Query().Get("compile") == "true" {
		compiled = i.e.compiler.Compile(tmpl)
	}
	i.writeJSON(w, http.StatusOK, compileView{
		Sequence:  seq.Name,
		Signature: seq.Signature().String(),
		Tracks:    len(tmpl.TrackIDs()),
		Nested:    tmpl.Hierarchy().Len(),
		Compiled:  compiled,
		Entries:   i.e.fieldEntries(tmpl),
	})
}

type trackView struct {
	ID       uint32                     `json:"id"`
	Name     string                     `json:"name"`
	Method   string                     `json:"method"`
	Group    string                     `json:"group,omitempty"`
	Priority int                        `json:"priority"`
	Sections []int                      `json:"sections_at"`
	Values   map[int]map[string]float64 `json:"values,omitempty"`
}

// getTracks reports, for ?t=, which sections of every track apply and what
// interrogable sections would produce.
func (i *inspector) getTracks(w http.ResponseWriter, r *http.Request) {
	t, err := queryTime(r)
	if err != nil {
		i.writeError(w, http.StatusBadRequest, err)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	_, tmpl, err := i.e.template(chi.URLParam(r, "name"))
	if err != nil {
		i.writeError(w, http.StatusNotFound, err)
		return
	}
	ctx := evalcontext.NewContext(evalcontext.AtTime(t), evalcontext.Stopped)
	out := make([]trackView, 0, len(tmpl.TrackIDs()))
	for _, id := range tmpl.TrackIDs() {
		track, _ := tmpl.FindTrack(id)
		out = append(out, trackView{
			ID:       uint32(id),
			Name:     track.Name,
			Method:   label(track.Method.String()),
			Group:    track.EvaluationGroup,
			Priority: track.EvaluationPriority,
			Sections: track.SectionsAt(t),
			Values:   track.Interrogate(ctx),
		})
	}
	i.writeJSON(w, http.StatusOK, out)
}

type evaluationView struct {
	Frame   frameView                     `json:"frame"`
	Objects map[string]map[string]float64 `json:"objects"`
	Metrics instance.EvaluationMetrics    `json:"metrics"`
}

// evaluate evaluates root time ?t=, sweeping from the previous request's
// time unless ?jump=true.
func (i *inspector) evaluate(w http.ResponseWriter, r *http.Request) {
	t, err := queryTime(r)
	if err != nil {
		i.writeError(w, http.StatusBadRequest, err)
		return
	}
	jump := r.URL.Query().Get("jump") == "true"

	i.mu.Lock()
	defer i.mu.Unlock()

	override, err := i.e.resolveOverride(r.URL.Query().Get("override"))
	if err != nil {
		i.writeError(w, http.StatusNotFound, err)
		return
	}
	rng := evalcontext.Swept(i.last, t)
	status := evalcontext.Playing
	if !i.played || jump {
		rng = evalcontext.AtTime(t)
		status = evalcontext.Jumping
	}
	i.mem.ResetTrace()
	i.inst.Evaluate(evalcontext.NewContext(rng, status), i.mem, override)
	i.last, i.played = t, true

	i.logger.Debug("evaluated", slog.Float64(logging.FieldTime, t), slog.Int("traced", len(i.mem.TraceLog())))
	i.writeJSON(w, http.StatusOK, evaluationView{
		Frame:   frameView{Time: t, Trace: traceViews(i.mem.TraceLog())},
		Objects: objectValues(i.objects),
		Metrics: i.inst.Metrics(),
	})
}

func queryTime(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		return 0, errors.New("missing t")
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid t %q: %w", raw, err)
	}
	return t, nil
}

func (i *inspector) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		i.logger.Debug("write response failed", logging.Error(err))
	}
}

func (i *inspector) writeError(w http.ResponseWriter, status int, err error) {
	i.writeJSON(w, status, map[string]string{"error": err.Error()})
}
