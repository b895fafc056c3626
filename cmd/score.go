package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/profile"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

var (
	scoreLeadPath string
	scoreICP      string
	scoreJSON     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single lead against an ICP profile",
	Long:  "Scores one lead from a JSON file without touching the store. Useful for tuning profile weights.",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(scoreLeadPath)
		if err != nil {
			return eris.Wrap(err, "read lead file")
		}
		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return eris.Wrap(err, "parse lead file")
		}

		loader := profile.NewLoader(cfg.Profiles.Dir)
		prof, err := loader.Load(scoreICP)
		if err != nil {
			return err
		}

		fit, reasons := scorer.ScoreLead(lead, *prof)

		if scoreJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"lead":          lead.DisplayName(),
				"profile":       prof.Name,
				"fit_score":     fit,
				"score_reasons": reasons,
			})
		}

		fmt.Printf("%s: fit score %d/100 against %s\n\n", displayOrEmail(&lead), fit, prof.Name)
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"#", "Reason"})
		for i, r := range reasons {
			tw.AppendRow(table.Row{i + 1, r})
		}
		tw.Render()
		return nil
	},
}

func displayOrEmail(l *model.Lead) string {
	if name := l.DisplayName(); name != "" {
		return name
	}
	return l.Email
}

func init() {
	scoreCmd.Flags().StringVar(&scoreLeadPath, "lead", "", "path to a lead JSON file (required)")
	scoreCmd.Flags().StringVar(&scoreICP, "icp", "icp_v1", "ICP profile name")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the result as JSON")
	_ = scoreCmd.MarkFlagRequired("lead")
	rootCmd.AddCommand(scoreCmd)
}
