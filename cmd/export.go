package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportRunID       string
	exportLinearIssue string
	exportOutDir      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export artifacts for an existing run",
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

		outDir := exportOutDir
		if outDir == "" {
			outDir = cfg.Export.OutputDir
		}
		exporter, err := initExporter(st, outDir)
		if err != nil {
			return err
		}

		result, err := exporter.ExportRun(ctx, exportRunID, exportLinearIssue)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export (required)")
	exportCmd.Flags().StringVar(&exportLinearIssue, "linear-issue", "", "Linear issue ID for the markdown summary")
	exportCmd.Flags().StringVar(&exportOutDir, "out", "", "output directory (default from config)")
	_ = exportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportCmd)
}
