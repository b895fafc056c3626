package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	runQuery       string
	runICP         string
	runCSV         string
	runSource      string
	runLimit       int
	runDryRun      bool
	runSkipEnrich  bool
	runSkipExport  bool
	runLinearIssue string
	runStrictParse bool
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lead generation pipeline",
	Long: `Run ingest, enrichment, scoring and export for one lead search.

The input is one of:
  --query  natural language search, parsed into filters
  --icp    a named profile from the profiles directory
  --csv    a local path or http(s)/ftp URL of an Apollo export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if runQuery != "" && runCSV != "" {
			return eris.New("--query and --csv are mutually exclusive")
		}

		sourceKind := model.SourceKind(runSource)
		checkKind := sourceKind
		if checkKind == "" {
			checkKind = model.SourceApolloAPI
		}
		if runCSV != "" {
			checkKind = model.SourceCSVImport
		}
		if err := cfg.Validate(string(checkKind), runDryRun); err != nil {
			return err
		}
		if runQuery != "" && runStrictParse {
			if err := cfg.ValidateQueryParse(); err != nil {
				return err
			}
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit := runLimit
		if limit <= 0 {
			limit = cfg.Pipeline.Limit
		}

		report, err := env.Pipeline.Run(ctx, pipeline.Options{
			Query:       runQuery,
			ICPName:     runICP,
			CSVPath:     runCSV,
			Source:      sourceKind,
			Limit:       limit,
			DryRun:      runDryRun,
			SkipEnrich:  runSkipEnrich,
			SkipExport:  runSkipExport,
			LinearIssue: runLinearIssue,
		})
		if report == nil {
			return err
		}
		if err != nil {
			zap.L().Error("pipeline run failed",
				zap.String("run_id", report.RunID),
				zap.String("step", report.Step),
				zap.Error(err))
		}

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				return encErr
			}
		} else {
			printReport(report)
		}
		return err
	},
}

func printReport(r *model.PipelineReport) {
	fmt.Printf("Run:      %s (%s)\n", r.RunID, r.Status)
	fmt.Printf("Profile:  %s\n", r.ProfileName)
	fmt.Printf("Source:   %s\n", r.Source)
	fmt.Printf("Leads:    %d\n", r.TotalLeads)
	if r.Steps.Score != nil && r.Steps.Score.Status == model.StageSuccess {
		d := r.Steps.Score.Distribution
		fmt.Printf("Scores:   high %d / medium %d / low %d\n", d.High, d.Medium, d.Low)
	}
	if r.Steps.Export != nil && r.Steps.Export.Status == model.StageSuccess {
		fmt.Printf("CSV:      %s\n", r.Steps.Export.CSVPath)
		fmt.Printf("JSON:     %s\n", r.Steps.Export.JSONPath)
		fmt.Printf("Markdown: %s\n", r.Steps.Export.MarkdownPath)
	}
	fmt.Printf("Elapsed:  %.1fs\n", r.ElapsedSeconds)
	if r.Status != "success" {
		fmt.Printf("Failed at %s: %s\n", r.Step, r.Message)
	}
}

func init() {
	runCmd.Flags().StringVar(&runQuery, "query", "", "natural language lead query")
	runCmd.Flags().StringVar(&runICP, "icp", "", "ICP profile name (default icp_v1)")
	runCmd.Flags().StringVar(&runCSV, "csv", "", "path or URL of a CSV/XLSX export to import")
	runCmd.Flags().StringVar(&runSource, "source", "", "source override: apollo_api or linkedin_xray")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max leads to fetch (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "use fixture data, no API calls")
	runCmd.Flags().BoolVar(&runSkipEnrich, "skip-enrichment", false, "skip the Clay enrichment stage")
	runCmd.Flags().BoolVar(&runSkipExport, "skip-export", false, "skip the export stage")
	runCmd.Flags().StringVar(&runLinearIssue, "linear-issue", "", "Linear issue ID for the markdown summary")
	runCmd.Flags().BoolVar(&runStrictParse, "strict-parse", false, "require the LLM query parser, no keyword fallback")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(runCmd)
}
