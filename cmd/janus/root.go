package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Janus - interval retention for cloud backups",
	Long: `Janus classifies cloud backups against a multi-tier interval retention
policy and reconciles a deletion-marker tag with the outcome.

It discovers managed EBS snapshots, EC2 images and RDS manual snapshots,
keeps the first backup of every parent resource in each retention period,
and marks everything else for out-of-band deletion:
  - Retention rules like "R31/P1D" (31 daily periods) stack into tiers
  - A backup kept by any tier is kept
  - Recent backups inside the policy horizon are never marked
  - Dry-run mode reports decisions without mutating any tags`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "janus.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
