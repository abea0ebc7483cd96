package review

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dshills/codecheck/internal/cache"
	"github.com/dshills/codecheck/internal/diff"
	"github.com/dshills/codecheck/internal/providers"
	"github.com/dshills/codecheck/internal/redact"
)

// Options configures a Pipeline.
type Options struct {
	Provider          string
	Model             string
	Credential        string
	BaseURL           string
	MaxRetries        int
	ExcludePatterns   []string
	ChunkBudget       int
	Concurrency       int
	RequestsPerSecond float64
	MaxComments       int
	Redact            bool
	RedactPaths       []string
	Guidelines        *Guidelines
	Cache             *cache.Cache
	Logger            *slog.Logger
	Version           string
	Repo              string
	Target            string

	// Reviewer overrides provider construction when set. Used by tests and
	// by callers that already hold a configured provider.
	Reviewer providers.Reviewer
}

// Pipeline runs a full review: parse, filter, chunk, request, map, report.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
	req    *requester
}

// NewPipeline builds a Pipeline, constructing the model provider from the
// options unless one is supplied.
func NewPipeline(opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reviewer := opts.Reviewer
	if reviewer == nil {
		var err error
		reviewer, err = providers.New(providers.Options{
			Provider:   opts.Provider,
			Model:      opts.Model,
			Credential: opts.Credential,
			BaseURL:    opts.BaseURL,
			MaxRetries: opts.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		opts:   opts,
		logger: logger,
		req:    newRequester(reviewer, opts, logger),
	}, nil
}

// Run reviews the given unified diff text and returns a Report. Chunk
// failures and unparseable file sections are recorded in the report rather
// than aborting the run; only context cancellation returns an error, and
// even then the partial report is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, diffText string) (*Report, error) {
	start := time.Now()

	files, parseErrs := diff.Parse(diffText)

	var skipped []SkippedFile
	for i := range parseErrs {
		skipped = append(skipped, SkippedFile{
			Path:   parseErrs[i].Path,
			Reason: "parse error: " + parseErrs[i].Err.Error(),
		})
	}

	files = diff.Filter(files, p.opts.ExcludePatterns)

	var reviewable []diff.File
	for _, f := range files {
		switch {
		case f.Binary:
			skipped = append(skipped, SkippedFile{Path: f.Path, Reason: "binary file"})
		case f.Status == diff.StatusDeleted:
			skipped = append(skipped, SkippedFile{Path: f.Path, Reason: "deleted file"})
		case len(f.Hunks) == 0:
			skipped = append(skipped, SkippedFile{Path: f.Path, Reason: "no reviewable hunks"})
		default:
			reviewable = append(reviewable, f)
		}
	}

	chunks := SplitFiles(reviewable, p.req.budget)
	for i := range chunks {
		if chunks[i].Oversized {
			p.logger.Warn("chunk exceeds size budget, will be truncated",
				"file", chunks[i].File, "bytes", len(chunks[i].Text), "budget", p.req.budget)
		}
	}

	if p.opts.Redact {
		for i := range chunks {
			text, n := redact.Content(chunks[i].Text, chunks[i].File, p.opts.RedactPaths)
			if n > 0 {
				p.logger.Debug("redacted before sending",
					"file", chunks[i].File, "matches", n)
			}
			chunks[i].Text = text
		}
	}

	results, failures, llmMs := p.req.requestAll(ctx, chunks)

	comments, unmapped := MapSuggestions(results)
	if n := ApplySeverityOverrides(comments, p.opts.Guidelines); n > 0 {
		p.logger.Debug("guideline severity overrides applied", "count", n)
	}
	comments = capComments(comments, p.opts.MaxComments, p.logger)
	SortComments(comments)

	dropped := 0
	tokens := 0
	for i := range results {
		dropped += results[i].Dropped
		tokens += results[i].TokensUsed
	}
	for i := range unmapped {
		p.logger.Warn("suggestion did not map to a diff line", "error", unmapped[i].Error())
	}

	summary := ComputeSummary(comments)
	summary.FilesReviewed = len(reviewable)
	summary.ChunksRequested = len(chunks)
	summary.ChunksFailed = len(failures)
	summary.Dropped = dropped

	version := p.opts.Version
	if version == "" {
		version = "dev"
	}

	report := &Report{
		Tool:       "codecheck",
		Version:    version,
		RunID:      generateRunID(),
		Repo:       p.opts.Repo,
		Target:     p.opts.Target,
		Provider:   p.opts.Provider,
		Model:      p.opts.Model,
		Summary:    summary,
		Comments:   comments,
		Skipped:    skipped,
		Failures:   failures,
		Unmapped:   unmapped,
		TokensUsed: tokens,
		Timing: Timing{
			LLMMs:   llmMs,
			TotalMs: time.Since(start).Milliseconds(),
		},
		StartedAt: start.UTC(),
	}
	return report, ctx.Err()
}

// capComments keeps at most limit comments, preferring higher severities.
// Callers re-sort by position afterwards.
func capComments(comments []Comment, limit int, logger *slog.Logger) []Comment {
	if limit <= 0 || len(comments) <= limit {
		return comments
	}
	keep := make([]Comment, len(comments))
	copy(keep, comments)
	sort.SliceStable(keep, func(i, j int) bool {
		return SeverityRank(keep[i].Severity) > SeverityRank(keep[j].Severity)
	})
	logger.Info("comment limit reached, keeping highest severities",
		"total", len(comments), "limit", limit)
	return keep[:limit]
}

func generateRunID() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", sum)[:16]
}
