package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"strmsync/internal/preflight"
	"strmsync/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check remote and filesystem health and show tracked counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, yesNo(result.Passed), result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "OK", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			store, err := state.Open(cfg.General.StateDB)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountBySource(cmd.Context())
			if err != nil {
				return err
			}
			countRows := make([][]string, 0, len(cfg.Sources))
			for i := range cfg.Sources {
				name := cfg.Sources[i].Name
				countRows = append(countRows, []string{name, strconv.FormatInt(counts[name], 10)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Tracked"},
				countRows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
