// Package github publishes review results to GitHub: pull-request diffs and
// commit diffs in, batch reviews and commit comments out.
//
// Authentication uses the GITHUB_TOKEN environment variable; GITHUB_API_URL
// redirects the client at GitHub Enterprise instances. Inline comments are
// submitted as one batch review, and when GitHub rejects the comment
// positions the review degrades to a body-only submission rather than being
// lost. DetectAction resolves the review target from GitHub Actions
// environment variables so the same pipeline runs unchanged in CI.
package github
