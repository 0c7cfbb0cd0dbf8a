package cmd

import (
	"fmt"
	"strings"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a blueprint file",
	Long: `Validate a blueprint file against the platform schema.

Exits non-zero when the file fails to parse or carries any error-level
finding, the same way the platform rejects a configuration before any
build step runs.`,
	RunE: validateRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := resolveBlueprintPath(args)
	if err != nil {
		return err
	}

	bp, err := blueprint.ParseFile(path)
	if err != nil {
		output.Errorf("%v", err)
		return fmt.Errorf("blueprint failed to parse")
	}

	findings := bp.Validate()
	if len(findings) == 0 {
		output.Successf("%s is valid", path)
		output.KeyValue("Services", strings.Join(bp.ServiceNames(), ", "))
		return nil
	}

	output.Table([]string{"Severity", "Field", "Code", "Message"}, findingsRows(findings))
	output.Blank()

	errorCount := len(findings.Errors())
	warningCount := len(findings.Warnings())
	if errorCount > 0 {
		output.Errorf("%s: %d error(s), %d warning(s)", path, errorCount, warningCount)
		return fmt.Errorf("blueprint has validation errors")
	}

	output.Successf("%s is valid (%d warning(s))", path, warningCount)
	return nil
}

// findingsRows renders validation findings as table rows, errors first.
func findingsRows(findings blueprint.Findings) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings.Errors() {
		rows = append(rows, []string{output.Red(string(f.Severity)), f.Field, f.Code, f.Message})
	}
	for _, f := range findings.Warnings() {
		rows = append(rows, []string{output.Yellow(string(f.Severity)), f.Field, f.Code, f.Message})
	}
	return rows
}
