package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
}

var (
	runsStatus string
	runsSource string
	runsLimit  int
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(runsStatus),
			Source: model.SourceKind(runsSource),
			Limit:  runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Profile", "Source", "Status", "Fetched", "Scored", "Exported", "Created"})
		for _, r := range runs {
			tw.AppendRow(table.Row{
				r.ID,
				r.ProfileName,
				r.Source,
				r.Status,
				r.Counters.LeadsFetched,
				r.Counters.LeadsScored,
				r.Counters.LeadsExported,
				r.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		tw.Render()
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		counts, err := st.CountsByRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show counts")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run":    run,
			"counts": counts,
		})
	},
}

func init() {
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (running/completed/failed)")
	runsListCmd.Flags().StringVar(&runsSource, "source", "", "filter by source kind")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
