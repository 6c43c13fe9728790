package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ruleworks/arbiter/pkg/loader"
	"ruleworks/arbiter/pkg/rules"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule documents",
	Long: `Validate rule documents for syntax and sandbox errors.

The lint command compiles every rule in the given documents:
  - YAML and CSV structure validation
  - Expression syntax validation
  - Sandbox validation (forbidden names reject the whole document)

Examples:
  # Lint a single document
  arbiter lint --file discounts.yaml

  # Lint a directory
  arbiter lint --dir rulesets/

  # Treat dropped rules as errors
  arbiter lint --dir rulesets/ --strict

  # JSON output for CI
  arbiter lint --dir rulesets/ --format json`,
	RunE: lintDocuments,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule document to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule documents")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat dropped rules as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// lintResult is the validation outcome for one document.
type lintResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Rules    int      `json:"rules"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func lintDocuments(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml", "*.csv"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule documents: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule documents found")
	}

	results := make([]lintResult, 0, len(files))
	for _, file := range files {
		results = append(results, lintFile(file))
	}

	if lintFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		printLintResults(results)
	}

	for _, result := range results {
		if !result.Valid {
			return fmt.Errorf("validation failed")
		}
		if lintFlags.strict && len(result.Warnings) > 0 {
			return fmt.Errorf("validation failed (strict mode)")
		}
	}
	return nil
}

func lintFile(path string) lintResult {
	result := lintResult{File: path}

	var (
		rs  *rules.RuleSet
		err error
	)
	switch filepath.Ext(path) {
	case ".csv":
		rs, err = loader.FromTableFile(path)
	default:
		rs, err = loader.FromYAMLFile(path)
	}

	var docErr *loader.DocumentError
	switch {
	case err == nil:
		result.Valid = true
	case errors.As(err, &docErr):
		// The document loaded; some rules were dropped.
		result.Valid = true
		for _, ruleErr := range docErr.RuleErrors {
			result.Warnings = append(result.Warnings, ruleErr.Error())
		}
	default:
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if rs != nil {
		result.Rules = rs.Len()
	}
	return result
}

func printLintResults(results []lintResult) {
	for _, result := range results {
		switch {
		case !result.Valid:
			fmt.Printf("✗ %s\n", result.File)
			for _, msg := range result.Errors {
				fmt.Printf("    error: %s\n", msg)
			}
		case len(result.Warnings) > 0:
			fmt.Printf("! %s (%d rules)\n", result.File, result.Rules)
			for _, msg := range result.Warnings {
				fmt.Printf("    warning: %s\n", msg)
			}
		default:
			fmt.Printf("✓ %s (%d rules)\n", result.File, result.Rules)
		}
	}
}
