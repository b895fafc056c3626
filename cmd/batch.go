package main

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	batchFile       string
	batchLimit      int
	batchDryRun     bool
	batchSkipEnrich bool
	batchSkipExport bool
	batchConcurrent int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for many queries",
	Long:  "Reads one natural language query per line and runs the pipeline for each, with bounded concurrency. Lines starting with # are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		queries, err := readQueries(batchFile)
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return eris.New("no queries in batch file")
		}

		if err := cfg.Validate(string(model.SourceApolloAPI), batchDryRun); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrent := batchConcurrent
		if concurrent <= 0 {
			concurrent = cfg.Pipeline.MaxConcurrent
		}

		var mu sync.Mutex
		reports := make([]*model.PipelineReport, 0, len(queries))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrent)
		for _, q := range queries {
			g.Go(func() error {
				report, err := env.Pipeline.Run(gctx, pipeline.Options{
					Query:      q,
					Limit:      batchLimit,
					DryRun:     batchDryRun,
					SkipEnrich: batchSkipEnrich,
					SkipExport: batchSkipExport,
				})
				if err != nil {
					zap.L().Error("batch query failed",
						zap.String("query", q),
						zap.Error(err))
				}
				if report != nil {
					mu.Lock()
					reports = append(reports, report)
					mu.Unlock()
				}
				// Individual query failures do not stop the batch.
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		succeeded := 0
		for _, r := range reports {
			if r.Status == "success" {
				succeeded++
			}
		}
		zap.L().Info("batch complete",
			zap.Int("queries", len(queries)),
			zap.Int("succeeded", succeeded))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open batch file")
	}
	defer f.Close() //nolint:errcheck

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	return queries, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one query per line (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max leads per query (default from config)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "use fixture data, no API calls")
	batchCmd.Flags().BoolVar(&batchSkipEnrich, "skip-enrichment", false, "skip the Clay enrichment stage")
	batchCmd.Flags().BoolVar(&batchSkipExport, "skip-export", false, "skip the export stage")
	batchCmd.Flags().IntVar(&batchConcurrent, "concurrent", 0, "max concurrent runs (default from config)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
