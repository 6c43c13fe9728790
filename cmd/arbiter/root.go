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
	Use:   "arbiter",
	Short: "Arbiter - rule evaluation service",
	Long: `Arbiter is a rule evaluation service.

It registers named rule sets loaded from YAML documents and CSV decision
tables, evaluates facts against them through a sandboxed expression
language, and exposes evaluation over HTTP:

  - Rules carry a condition, an action, and a priority
  - Rule sets evaluate all matches or stop at the first match
  - One rule's failure never aborts the batch
  - Conditions and actions run in an allow-listed expression sandbox`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
