package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cloudkeep/janus/pkg/ager"
	"cloudkeep/janus/pkg/audit"
	"cloudkeep/janus/pkg/cli"
	"cloudkeep/janus/pkg/config"
	"cloudkeep/janus/pkg/reconcile"
)

var ageFlags struct {
	dryRun       bool
	classifyOnly bool
	rules        []string
	regions      []string
	timezone     string
	format       string
	tagKeys      []string
	noTagKeys    []string
	tagKeyVals   []string
}

var ageCmd = &cobra.Command{
	Use:   "age",
	Short: "Run one retention pass",
	Long: `Run a single retention pass: discover managed backups, classify each
as keep or delete against the configured retention rules, and reconcile
the deletion-marker tag with the outcome.

Examples:
  # One pass with the default config
  janus age

  # Preview decisions without touching any tags
  janus age --dry-run --format table

  # Override the configured policy for this pass
  janus age --rules R31/P1D --rules R10/P1W

  # Scan specific regions
  janus age --regions eu-west-1 --regions us-east-1`,
	RunE: runAge,
}

func init() {
	rootCmd.AddCommand(ageCmd)

	ageCmd.Flags().BoolVar(&ageFlags.dryRun, "dry-run", false, "report decisions without mutating tags")
	ageCmd.Flags().BoolVar(&ageFlags.classifyOnly, "classify-only", false, "classify and report only, implies --dry-run")
	ageCmd.Flags().StringSliceVar(&ageFlags.rules, "rules", nil, "override retention rules")
	ageCmd.Flags().StringSliceVar(&ageFlags.regions, "regions", nil, "override regions to scan")
	ageCmd.Flags().StringVar(&ageFlags.timezone, "timezone", "", "override period calendar (utc, local, or IANA name)")
	ageCmd.Flags().StringVar(&ageFlags.format, "format", "text", "output format: text, json, table")
	ageCmd.Flags().StringArrayVar(&ageFlags.tagKeys, "tag-keys", nil, "require one of these comma-separated tag keys (repeatable, sets are ANDed)")
	ageCmd.Flags().StringSliceVar(&ageFlags.noTagKeys, "no-tag-keys", nil, "exclude backups carrying any of these tag keys")
	ageCmd.Flags().StringArrayVar(&ageFlags.tagKeyVals, "tag-key-vals", nil, "require a tag key with optional values, e.g. env=prod,staging (repeatable)")
}

func runAge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides and re-validate
	if len(ageFlags.rules) > 0 {
		cfg.Retention.Rules = ageFlags.rules
	}
	if len(ageFlags.regions) > 0 {
		cfg.Discovery.Regions = ageFlags.regions
	}
	if ageFlags.timezone != "" {
		cfg.Retention.Timezone = ageFlags.timezone
	}
	if len(ageFlags.tagKeys) > 0 || len(ageFlags.noTagKeys) > 0 || len(ageFlags.tagKeyVals) > 0 {
		filter, err := filterFromFlags()
		if err != nil {
			return err
		}
		cfg.Discovery.Filter = filter
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if err := setupLogging(cfg); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	dryRun := cfg.Retention.DryRun || ageFlags.dryRun || ageFlags.classifyOnly

	ctx := cli.SetupSignalHandler()

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("age", err)
	}

	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("age", err)
	}
	var recorder *audit.Recorder
	if store != nil {
		defer store.Close()
		recorder = audit.NewRecorder(store)
	}

	pass, err := buildAger(cfg, registry, recorder, nil, dryRun)
	if err != nil {
		return cli.NewConfigError("retention", err.Error())
	}

	report, err := pass.Run(ctx)
	if err != nil {
		return cli.NewCommandError("age", err)
	}

	return renderReport(os.Stdout, cli.OutputFormat(ageFlags.format), report, dryRun)
}

// filterFromFlags builds a tag filter from the age command's filter flags.
// It replaces the configured filter wholesale.
func filterFromFlags() (config.TagFilterConfig, error) {
	var filter config.TagFilterConfig

	for _, group := range ageFlags.tagKeys {
		keys := splitCSV(group)
		if len(keys) == 0 {
			return filter, cli.NewUsageError("--tag-keys", "empty key set")
		}
		filter.AnyKeys = append(filter.AnyKeys, keys)
	}

	filter.NoKeys = ageFlags.noTagKeys

	for _, entry := range ageFlags.tagKeyVals {
		key, values, hasValues := strings.Cut(entry, "=")
		if key == "" {
			return filter, cli.NewUsageError("--tag-key-vals", fmt.Sprintf("missing key in %q", entry))
		}
		kv := config.KeyValuesConfig{Key: key}
		if hasValues {
			kv.Values = splitCSV(values)
		}
		filter.KeyValues = append(filter.KeyValues, kv)
	}

	return filter, nil
}

func splitCSV(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ageResult is the JSON shape of a retention pass.
type ageResult struct {
	RunID             string              `json:"run_id,omitempty"`
	Status            string              `json:"status"`
	DryRun            bool                `json:"dry_run"`
	Horizon           *time.Time          `json:"horizon,omitempty"`
	Discovered        int                 `json:"discovered"`
	Kept              int                 `json:"kept"`
	Deleted           int                 `json:"deleted"`
	MarkersAdded      int                 `json:"markers_added"`
	MarkersRemoved    int                 `json:"markers_removed"`
	MutationsFailed   int                 `json:"mutations_failed"`
	RejectedRules     []string            `json:"rejected_rules,omitempty"`
	DiscoveryFailures []string            `json:"discovery_failures,omitempty"`
	Decisions         []retentionDecision `json:"decisions,omitempty"`
}

type retentionDecision struct {
	Region    string    `json:"region"`
	Service   string    `json:"service"`
	ParentID  string    `json:"parent_id"`
	BackupID  string    `json:"backup_id"`
	CreatedAt time.Time `json:"created_at"`
	Outcome   string    `json:"outcome"`
	Rule      string    `json:"rule,omitempty"`
	Reason    string    `json:"reason"`
}

func summarize(report *ager.Report, dryRun bool) *ageResult {
	result := &ageResult{
		RunID:      report.RunID,
		Status:     report.Status,
		DryRun:     dryRun,
		Discovered: len(report.Decisions),
		Kept:       report.Kept(),
		Deleted:    report.Deleted(),
	}
	if !report.Horizon.IsZero() {
		horizon := report.Horizon
		result.Horizon = &horizon
	}
	for _, rejected := range report.Rejected {
		result.RejectedRules = append(result.RejectedRules, rejected.Error())
	}
	for _, failure := range report.DiscoveryFailures {
		result.DiscoveryFailures = append(result.DiscoveryFailures, failure.Error())
	}
	for i := range report.Decisions {
		d := &report.Decisions[i]
		result.Decisions = append(result.Decisions, retentionDecision{
			Region:    d.Record.Identity.Region,
			Service:   string(d.Record.Identity.Service),
			ParentID:  d.Record.Identity.ParentID,
			BackupID:  d.Record.Identity.BackupID,
			CreatedAt: d.Record.CreatedAt,
			Outcome:   string(d.Outcome),
			Rule:      d.Rule,
			Reason:    d.Reason,
		})
	}
	if report.Reconcile != nil {
		for _, applied := range report.Reconcile.Applied {
			if applied.Err != nil {
				result.MutationsFailed++
				continue
			}
			switch applied.Op {
			case reconcile.OpAdd:
				result.MarkersAdded++
			case reconcile.OpRemove:
				result.MarkersRemoved++
			}
		}
	}
	return result
}

// decisionTable renders decisions for the table output format.
type decisionTable struct {
	decisions []retentionDecision
}

func (t decisionTable) Headers() []string {
	return []string{"REGION", "SERVICE", "PARENT", "BACKUP", "CREATED", "OUTCOME", "RULE", "REASON"}
}

func (t decisionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.decisions))
	for _, d := range t.decisions {
		rows = append(rows, []string{
			d.Region,
			d.Service,
			d.ParentID,
			d.BackupID,
			d.CreatedAt.UTC().Format(time.RFC3339),
			d.Outcome,
			d.Rule,
			d.Reason,
		})
	}
	return rows
}

func renderReport(w io.Writer, format cli.OutputFormat, report *ager.Report, dryRun bool) error {
	result := summarize(report, dryRun)

	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(cli.FormatJSON).FormatTo(w, result)

	case cli.FormatTable:
		if err := cli.NewFormatter(cli.FormatTable).FormatTo(w, decisionTable{result.Decisions}); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return printSummary(w, result)

	default:
		return printSummary(w, result)
	}
}

func printSummary(w io.Writer, result *ageResult) error {
	mode := ""
	if result.DryRun {
		mode = " (dry-run)"
	}
	label := "Run"
	if result.RunID != "" {
		label = "Run " + result.RunID
	}
	fmt.Fprintf(w, "%s %s%s\n", label, result.Status, mode)

	if result.Status == audit.RunNothingToDo {
		fmt.Fprintln(w, "  No backups or no valid rules; nothing to reconcile.")
	} else {
		fmt.Fprintf(w, "  Backups discovered: %d\n", result.Discovered)
		fmt.Fprintf(w, "  Kept: %d, marked for deletion: %d\n", result.Kept, result.Deleted)
		fmt.Fprintf(w, "  Markers added: %d, removed: %d, failed: %d\n",
			result.MarkersAdded, result.MarkersRemoved, result.MutationsFailed)
		if result.Horizon != nil {
			fmt.Fprintf(w, "  Horizon: %s\n", result.Horizon.UTC().Format(time.RFC3339))
		}
	}

	if len(result.RejectedRules) > 0 {
		fmt.Fprintln(w, "Rejected rules:")
		for _, rejected := range result.RejectedRules {
			fmt.Fprintf(w, "  %s\n", rejected)
		}
	}
	if len(result.DiscoveryFailures) > 0 {
		fmt.Fprintln(w, "Discovery failures:")
		for _, failure := range result.DiscoveryFailures {
			fmt.Fprintf(w, "  %s\n", failure)
		}
	}
	return nil
}
