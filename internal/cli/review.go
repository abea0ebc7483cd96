package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/codecheck/internal/cache"
	"github.com/dshills/codecheck/internal/config"
	"github.com/dshills/codecheck/internal/github"
	"github.com/dshills/codecheck/internal/gitctx"
	"github.com/dshills/codecheck/internal/output"
	"github.com/dshills/codecheck/internal/providers"
	"github.com/dshills/codecheck/internal/review"
	"github.com/spf13/cobra"
)

// Shared review flags
var (
	flagProvider    string
	flagModel       string
	flagExclude     string
	flagChunkBudget int
	flagConcurrency int
	flagMaxComments int
	flagGuidelines  string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagNoRedact    bool
	flagNoCache     bool
)

// Target flags for the GitHub-backed subcommands.
var (
	flagOwner  string
	flagRepo   string
	flagDryRun bool
)

// Patch-specific flags.
var (
	flagStaged bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated, replaces config)")
	cmd.Flags().IntVar(&flagChunkBudget, "chunk-budget", 0, "Maximum characters of diff per model request")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Concurrent model requests")
	cmd.Flags().IntVar(&flagMaxComments, "max-comments", 0, "Maximum number of published comments")
	cmd.Flags().StringVar(&flagGuidelines, "guidelines", "", "Review guidelines YAML file")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Report format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Report file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when a comment meets this severity (none, low, medium, high)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable the response cache")
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	cmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Run the review but don't post to GitHub")
}

// buildOverrides collects explicitly set flags as config overrides. Keys use
// the config file's spelling so viper applies them over file and env values.
func buildOverrides() map[string]any {
	m := make(map[string]any)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagExclude != "" {
		m["exclude"] = splitComma(flagExclude)
	}
	if flagChunkBudget > 0 {
		m["chunk_budget"] = flagChunkBudget
	}
	if flagConcurrency > 0 {
		m["concurrency"] = flagConcurrency
	}
	if flagMaxComments > 0 {
		m["max_comments"] = flagMaxComments
	}
	if flagGuidelines != "" {
		m["guidelines"] = flagGuidelines
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["fail_on"] = flagFailOn
	}
	if flagNoRedact {
		m["redact"] = false
	}
	if flagNoCache {
		m["cache.enabled"] = false
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig, buildOverrides())
	if err != nil {
		return nil, err
	}
	if flagNoRedact {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	return cfg, nil
}

// newPipeline assembles the review pipeline from the effective configuration.
func newPipeline(cfg *config.Config, repo, target string) (*review.Pipeline, error) {
	guidelines, err := review.LoadGuidelines(cfg.Guidelines)
	if err != nil {
		return nil, fmt.Errorf("loading guidelines: %w", err)
	}
	respCache, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return review.NewPipeline(review.Options{
		Provider:          cfg.Provider,
		Model:             cfg.Model,
		Credential:        cfg.Credential,
		BaseURL:           cfg.BaseURL,
		MaxRetries:        cfg.MaxRetries,
		ExcludePatterns:   cfg.Exclude,
		ChunkBudget:       cfg.ChunkBudget,
		Concurrency:       cfg.Concurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxComments:       cfg.MaxComments,
		Redact:            cfg.Redact,
		RedactPaths:       cfg.RedactPaths,
		Guidelines:        guidelines,
		Cache:             respCache,
		Version:           version,
		Repo:              repo,
		Target:            target,
	})
}

// resolveRepo returns the owner and name of the target repository, from the
// flags when set, otherwise from the origin remote of the current checkout.
func resolveRepo() (string, string, error) {
	owner, repo := flagOwner, flagRepo
	if owner != "" && repo != "" {
		return owner, repo, nil
	}
	detectedOwner, detectedRepo, err := github.DetectRepo()
	if err != nil {
		return "", "", fmt.Errorf("%w (use --owner and --repo)", err)
	}
	if owner == "" {
		owner = detectedOwner
	}
	if repo == "" {
		repo = detectedRepo
	}
	return owner, repo, nil
}

// applyFailOn gates the exit code on the configured severity threshold.
func applyFailOn(report *review.Report, cfg *config.Config) {
	if cfg.FailOn == "" || cfg.FailOn == "none" {
		return
	}
	for _, c := range report.Comments {
		if review.MeetsThreshold(c.Severity, cfg.FailOn) {
			exitCode = ExitFindings
			return
		}
	}
}

// runDiffReview runs the pipeline over diffText and writes the local report.
// It returns nil when any step failed; exitCode is already set in that case.
func runDiffReview(ctx context.Context, cfg *config.Config, repo, target, diffText string) *review.Report {
	p, err := newPipeline(cfg, repo, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		return nil
	}

	report, err := p.Run(ctx, diffText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: review interrupted: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}
	return report
}

func runPRReview(ctx context.Context, client *github.Client, cfg *config.Config, owner, repo string, number int) {
	slug := owner + "/" + repo
	fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s...\n", number, slug)

	diffText, err := client.FetchPRDiff(ctx, owner, repo, number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if strings.TrimSpace(diffText) == "" {
		fmt.Fprintf(os.Stdout, "PR #%d has no diff, nothing to review.\n", number)
		return
	}

	report := runDiffReview(ctx, cfg, slug, fmt.Sprintf("PR #%d", number), diffText)
	if report == nil {
		return
	}

	if flagDryRun {
		fmt.Fprintf(os.Stderr, "Dry run: not posting %d comment(s) to GitHub.\n", len(report.Comments))
	} else {
		rev := github.BuildReview(report)
		fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(rev.Comments))
		degraded, err := client.CreateReview(ctx, owner, repo, number, rev)
		switch {
		case err != nil:
			// Publish failures surface in the log but never change the exit
			// code: the review already ran and the report is written.
			slog.Error("posting review failed", "pr", number, "error", err)
			fmt.Fprintf(os.Stderr, "Error posting review: %v\n", err)
		case degraded:
			fmt.Fprintln(os.Stderr, "Inline positions were rejected; comments were folded into the review body.")
		default:
			fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", number)
		}
	}

	applyFailOn(report, cfg)
}

func runCommitReview(ctx context.Context, client *github.Client, cfg *config.Config, owner, repo, sha string) {
	slug := owner + "/" + repo
	short := sha
	if len(short) > 7 {
		short = short[:7]
	}
	fmt.Fprintf(os.Stderr, "Fetching commit %s from %s...\n", short, slug)

	diffText, err := client.FetchCommitDiff(ctx, owner, repo, sha)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if strings.TrimSpace(diffText) == "" {
		fmt.Fprintf(os.Stdout, "Commit %s has no diff, nothing to review.\n", short)
		return
	}

	report := runDiffReview(ctx, cfg, slug, "commit "+short, diffText)
	if report == nil {
		return
	}

	if flagDryRun {
		fmt.Fprintf(os.Stderr, "Dry run: not posting a summary comment to GitHub.\n")
	} else {
		body := github.BuildCommitComment(report)
		if err := client.CreateCommitComment(ctx, owner, repo, sha, body); err != nil {
			slog.Error("posting commit comment failed", "sha", short, "error", err)
			fmt.Fprintf(os.Stderr, "Error posting commit comment: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Summary comment posted to commit %s.\n", short)
		}
	}

	applyFailOn(report, cfg)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes with an LLM provider. Use subcommands to pick the diff source.",
}

var reviewPRCmd = &cobra.Command{
	Use:   "pr <number>",
	Short: "Review a GitHub pull request",
	Long:  "Fetch the pull request diff from GitHub, review it, and post the comments back as one batch review.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid pull request number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		owner, repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		client, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		runPRReview(context.Background(), client, cfg, owner, repo, number)
		return nil
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a commit on GitHub",
	Long:  "Fetch a commit's per-file patches from GitHub, review them, and post one summary comment on the commit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		owner, repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		client, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		runCommitReview(context.Background(), client, cfg, owner, repo, args[0])
		return nil
	},
}

var reviewPatchCmd = &cobra.Command{
	Use:   "patch [file]",
	Short: "Review a local unified diff without publishing",
	Long: "Read a unified diff from a file, stdin, or the git index (--staged) and\n" +
		"write the review as a local report. With --fail-on, exits 1 when a comment\n" +
		"meets the threshold, for hooks and CI gates.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagStaged && len(args) > 0 {
			fmt.Fprintln(os.Stderr, "Error: --staged cannot be combined with a file argument")
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		var diffText, target string
		switch {
		case flagStaged:
			diffText, err = gitctx.Staged(cfg.ContextLines)
			target = "staged changes"
		case len(args) == 1 && args[0] != "-":
			var data []byte
			data, err = os.ReadFile(args[0])
			diffText = string(data)
			target = filepath.Base(args[0])
		default:
			var data []byte
			data, err = io.ReadAll(os.Stdin)
			diffText = string(data)
			target = "stdin"
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading diff: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if strings.TrimSpace(diffText) == "" {
			fmt.Fprintln(os.Stdout, "Empty diff, nothing to review.")
			return nil
		}

		report := runDiffReview(context.Background(), cfg, "", target, diffText)
		if report == nil {
			return nil
		}
		applyFailOn(report, cfg)
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewPRCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewPatchCmd)

	for _, cmd := range []*cobra.Command{reviewPRCmd, reviewCommitCmd, reviewPatchCmd} {
		addReviewFlags(cmd)
	}
	addTargetFlags(reviewPRCmd)
	addTargetFlags(reviewCommitCmd)

	reviewPatchCmd.Flags().BoolVar(&flagStaged, "staged", false, "Review the staged diff (git diff --cached)")
}
