// Codecheck is an AI code-review assistant for GitHub pull requests, commits,
// and local patches.
//
// It fetches a change's unified diff, runs it through a diff-aware review
// pipeline (parse, filter, chunk, request, map), and publishes the model's
// critique as inline review comments, a commit comment, or a local report
// with deterministic exit codes suitable for CI gating and git hooks.
//
// Usage:
//
//	codecheck review pr <number>       # review a pull request and post a batch review
//	codecheck review commit <sha>      # review a commit and post a summary comment
//	codecheck review patch changes.diff  # review a local diff, report only
//	codecheck review patch --staged    # review the git index (pre-commit hook)
//	codecheck action                   # GitHub Actions entrypoint (env-driven)
//	codecheck models doctor            # check provider credentials
//
// See https://github.com/dshills/codecheck for full documentation.
package main
