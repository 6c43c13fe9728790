package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ruleworks/arbiter/pkg/expr"
)

var evalFlags struct {
	fact string
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate one expression against a fact",
	Long: `Evaluate a single sandbox expression against a JSON fact.

The fact is visible to the expression under the name "fact". This is the
same sandbox rule conditions and actions run in, so eval doubles as a
quick syntax and semantics check while writing rule documents.

Examples:
  # Boolean condition
  arbiter eval 'fact.get("amount") > 100' --fact '{"amount": 250}'

  # Action expression
  arbiter eval 'fact.get("amount") * 0.1' --fact '{"amount": 250}'

  # No fact needed for constant expressions
  arbiter eval '1 + 2 * 3'`,
	Args: cobra.ExactArgs(1),
	RunE: evalExpression,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalFlags.fact, "fact", "{}", "fact as a JSON object")
}

func evalExpression(cmd *cobra.Command, args []string) error {
	var fact map[string]any
	if err := json.Unmarshal([]byte(evalFlags.fact), &fact); err != nil {
		return fmt.Errorf("invalid --fact JSON: %w", err)
	}

	prog, err := expr.Compile(args[0])
	if err != nil {
		return err
	}

	out, err := prog.Run(map[string]any{"fact": fact})
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("result is not representable as JSON: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
