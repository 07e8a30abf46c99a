package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cloudkeep/janus/pkg/cli"
	"cloudkeep/janus/pkg/config"
	"cloudkeep/janus/pkg/interval"
)

var lintFlags struct {
	rules  []string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate configuration and retention rules",
	Long: `Validate the configuration file and decode every retention rule.

Each rule is reported with its decoded repetition count and period, or
the reason it was rejected. The command fails when the configuration is
invalid or any rule does not decode.

Examples:
  # Validate the default config
  janus lint

  # Check rule strings without a config file
  janus lint --rules R31/P1D --rules R10/P1W

  # JSON output for CI
  janus lint --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringSliceVar(&lintFlags.rules, "rules", nil, "rule strings to check instead of the config file")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// ruleReport is the lint result for one rule string.
type ruleReport struct {
	Source string `json:"source"`
	Valid  bool   `json:"valid"`

	Count    int    `json:"count,omitempty"`
	Infinite bool   `json:"infinite,omitempty"`
	Period   string `json:"period,omitempty"`

	Error string `json:"error,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	sources := lintFlags.rules

	if len(sources) == 0 {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}
		sources = cfg.Retention.Rules
	}

	reports := lintRules(sources)

	format := cli.OutputFormat(lintFlags.format)
	if format == cli.FormatJSON {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		printRuleReports(os.Stdout, reports)
	}

	for _, report := range reports {
		if !report.Valid {
			return cli.NewCommandError("lint", fmt.Errorf("%d of %d rules invalid", countInvalid(reports), len(reports)))
		}
	}
	return nil
}

func lintRules(sources []string) []ruleReport {
	reports := make([]ruleReport, 0, len(sources))
	for _, source := range sources {
		rule, err := interval.Parse(source)
		if err != nil {
			reports = append(reports, ruleReport{
				Source: source,
				Error:  err.Error(),
			})
			continue
		}
		reports = append(reports, ruleReport{
			Source:   rule.Source,
			Valid:    true,
			Count:    rule.Count,
			Infinite: rule.Infinite,
			Period:   rule.Duration.String(),
		})
	}
	return reports
}

func countInvalid(reports []ruleReport) int {
	n := 0
	for _, report := range reports {
		if !report.Valid {
			n++
		}
	}
	return n
}

func printRuleReports(w io.Writer, reports []ruleReport) {
	for _, report := range reports {
		if !report.Valid {
			fmt.Fprintf(w, "✗ %s: %s\n", report.Source, report.Error)
			continue
		}
		if report.Infinite {
			fmt.Fprintf(w, "✓ %s: every %s, unbounded\n", report.Source, report.Period)
		} else {
			fmt.Fprintf(w, "✓ %s: every %s, %d repetitions\n", report.Source, report.Period, report.Count)
		}
	}
}
