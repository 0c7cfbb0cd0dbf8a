package cmd

import (
	"fmt"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/buildfilter"
	"github.com/slipway/slipway/internal/git"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var (
	planChanged []string
	planBranch  string
)

var planCmd = &cobra.Command{
	Use:   "plan [file]",
	Short: "Show which services a change set would rebuild",
	Long: `Evaluate a set of changed paths against every service's build filter
and branch, the same gate the platform applies to a push, without
deploying anything.

Changed paths are relative to the repository root. The branch defaults
to the current git branch when the working directory is a repository.`,
	Example: "  - slipway plan --changed voice_chatbot_api/main.py\n" +
		"  - slipway plan render.yaml --changed docs/README.md --branch main",
	RunE: planRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	planCmd.Flags().StringArrayVar(&planChanged, "changed", nil, "Changed path, relative to the repository root (repeatable)")
	planCmd.Flags().StringVar(&planBranch, "branch", "", "Branch the change set is for (default: current git branch)")
	rootCmd.AddCommand(planCmd)
}

func planRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	path, err := resolveBlueprintPath(args)
	if err != nil {
		return err
	}

	bp, err := blueprint.ParseFile(path)
	if err != nil {
		return err
	}

	branch := planBranch
	if branch == "" {
		if detected, detectErr := git.DetectCurrentBranch(); detectErr == nil {
			branch = detected
		}
	}

	output.Table([]string{"Service", "Action", "Reason"}, planRows(bp, branch, planChanged))
	return nil
}

// planRows evaluates the change set against every declared service.
func planRows(bp *blueprint.Blueprint, branch string, changed []string) [][]string {
	rows := make([][]string, 0, len(bp.Services))
	for _, svc := range bp.Services {
		action, reason := planService(svc, branch, changed)
		rows = append(rows, []string{output.Bold(svc.Name), action, reason})
	}
	return rows
}

func planService(svc *blueprint.Service, branch string, changed []string) (action, reason string) {
	if branch != "" && !buildfilter.MatchesBranch(svc, branch) {
		return output.Gray("skip"),
			fmt.Sprintf("push is for branch %s; service tracks %s", branch, svc.BranchOrDefault())
	}
	if !svc.AutoDeployEnabled() {
		return output.Gray("skip"), "autoDeploy is disabled for this service"
	}

	decision := buildfilter.Evaluate(svc, changed)
	if !decision.Triggered {
		return output.Gray("skip"), decision.Reason
	}
	return output.Green("rebuild"), decision.Reason
}
