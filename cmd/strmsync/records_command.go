package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"strmsync/internal/state"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage tracked placeholder records",
	}
	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsClearCommand(ctx))
	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := state.Open(cfg.General.StateDB)
			if err != nil {
				return err
			}
			defer store.Close()

			var sources []string
			if sourceFlag != "" {
				if cfg.SourceByName(sourceFlag) == nil {
					return fmt.Errorf("unknown source %q", sourceFlag)
				}
				sources = []string{sourceFlag}
			} else {
				for i := range cfg.Sources {
					sources = append(sources, cfg.Sources[i].Name)
				}
			}

			var rows [][]string
			for _, source := range sources {
				records, err := store.ListBySource(cmd.Context(), source)
				if err != nil {
					return err
				}
				for _, rec := range records {
					rows = append(rows, []string{
						rec.Source,
						rec.LogicalPath,
						rec.Kind,
						rec.Fingerprint,
						rec.LastSyncedAt.Local().Format(time.DateTime),
					})
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Path", "Kind", "Fingerprint", "Synced"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Limit to one source")
	return cmd
}

func newRecordsClearCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every tracked record for a source",
		Long: "Forget every tracked record for a source. Placeholder files on disk " +
			"are left alone; the next cycle will re-adopt or re-create them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceFlag == "" {
				return errors.New("--source is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.SourceByName(sourceFlag) == nil {
				return fmt.Errorf("unknown source %q", sourceFlag)
			}
			store, err := state.Open(cfg.General.StateDB)
			if err != nil {
				return err
			}
			defer store.Close()

			cleared, err := store.Clear(cmd.Context(), sourceFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d records for %s\n", cleared, sourceFlag)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Source whose records to clear")
	return cmd
}
