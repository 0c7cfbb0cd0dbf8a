package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var fmtCheck bool

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Rewrite a blueprint file in canonical form",
	Long: `Rewrite a blueprint file in canonical form: two-space indent, stable
field order, sequence-form build commands, legacy aliases folded away.

With --check the file is left untouched and the command exits non-zero
when it is not already canonical, for use in CI.`,
	RunE: fmtRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Exit non-zero if the file is not canonical, without rewriting it")
	rootCmd.AddCommand(fmtCmd)
}

func fmtRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := resolveBlueprintPath(args)
	if err != nil {
		return err
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read blueprint file: %w", err)
	}

	bp, err := blueprint.Parse(original)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	canonical, err := bp.Encode()
	if err != nil {
		return err
	}

	if bytes.Equal(original, canonical) {
		output.Successf("%s is canonical", path)
		return nil
	}

	if fmtCheck {
		output.Errorf("%s is not canonical; run '%s fmt %s' to rewrite it",
			path, rootCmd.Use, path)
		return fmt.Errorf("blueprint is not canonical")
	}

	if err := bp.WriteFile(path); err != nil {
		return err
	}
	output.Successf("rewrote %s", path)
	return nil
}
