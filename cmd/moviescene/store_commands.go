package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"moviescene/internal/store"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect persisted templates",
	}
	storeCmd.AddCommand(newStoreListCommand(ctx))
	storeCmd.AddCommand(newStoreClearCommand(ctx))
	return storeCmd
}

func withStore(cmd *cobra.Command, ctx *commandContext, fn func(*store.Store) error) error {
	cfg := ctx.configValue()
	runCtx, logger, err := ctx.commandLogger(cmd, "")
	if err != nil {
		return err
	}
	s, err := store.Open(runCtx, cfg.Paths.StorePath, logger)
	if err != nil {
		return fmt.Errorf("open template store: %w", err)
	}
	defer s.Close()
	return fn(s)
}

type storedTemplateView struct {
	Name      string    `json:"name"`
	Signature string    `json:"signature"`
	Tracks    int       `json:"tracks"`
	Entries   int       `json:"field_entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newStoreListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, ctx, func(s *store.Store) error {
				records, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				views := make([]storedTemplateView, 0, len(records))
				for _, rec := range records {
					views = append(views, storedTemplateView{
						Name:      rec.Name,
						Signature: rec.Signature.String(),
						Tracks:    len(rec.Snapshot.Tracks),
						Entries:   len(rec.Snapshot.Field.Entries),
						UpdatedAt: rec.UpdatedAt,
					})
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintf(out, "No templates stored in %s\n", s.Path())
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						v.Name,
						v.Signature,
						strconv.Itoa(v.Tracks),
						strconv.Itoa(v.Entries),
						v.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Sequence", "Signature", "Tracks", "Entries", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStoreClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, ctx, func(s *store.Store) error {
				n, err := s.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d templates\n", n)
				return nil
			})
		},
	}
}
