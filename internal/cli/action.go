package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dshills/codecheck/internal/github"
	"github.com/spf13/cobra"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Run as a GitHub Actions entrypoint",
	Long: "Detect the event from the GITHUB_* environment and review the pull request\n" +
		"or pushed commit it points at. Configuration comes from CODECHECK_* variables\n" +
		"and the repository's .codecheck.yaml.",
	RunE: func(cmd *cobra.Command, args []string) error {
		actx, err := github.DetectAction()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		// Runners are ephemeral, a response cache would never hit.
		cfg.Cache.Enabled = false

		client, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		slog.Info("github action event",
			"event", actx.EventName, "repo", actx.Owner+"/"+actx.Repo)

		ctx := context.Background()
		if actx.PRNumber > 0 {
			runPRReview(ctx, client, cfg, actx.Owner, actx.Repo, actx.PRNumber)
		} else {
			runCommitReview(ctx, client, cfg, actx.Owner, actx.Repo, actx.SHA)
		}
		return nil
	},
}
