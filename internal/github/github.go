package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

const defaultAPIURL = "https://api.github.com"

// Client provides access to the GitHub REST API.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub client from the environment. GITHUB_TOKEN is
// required; GITHUB_API_URL overrides the endpoint for GitHub Enterprise.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}
	return newClient(token, os.Getenv("GITHUB_API_URL"))
}

func newClient(token, apiURL string) (*Client, error) {
	c := gh.NewClient(nil).WithAuthToken(token)
	if apiURL != "" && apiURL != defaultAPIURL {
		u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		c.BaseURL = u
		c.UploadURL = u
	}
	return &Client{gh: c}, nil
}

// FetchPRDiff fetches the unified diff for a pull request. GitHub refuses to
// render diffs for very large PRs (406), so that case falls back to
// assembling the diff from per-file patches, which the files endpoint still
// serves.
func (c *Client) FetchPRDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	raw, resp, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		switch statusCode(resp) {
		case http.StatusNotFound:
			return "", fmt.Errorf("PR #%d not found in %s/%s", number, owner, repo)
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", fmt.Errorf("authentication failed: %w", err)
		case http.StatusNotAcceptable:
			return c.fetchPRDiffFromFiles(ctx, owner, repo, number)
		}
		return "", fmt.Errorf("fetching PR diff: %w", err)
	}
	return raw, nil
}

// fetchPRDiffFromFiles rebuilds a unified diff from the paginated per-file
// patch list.
func (c *Client) fetchPRDiffFromFiles(ctx context.Context, owner, repo string, number int) (string, error) {
	opts := &gh.ListOptions{PerPage: 100}
	var b strings.Builder
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return "", fmt.Errorf("listing PR files: %w", err)
		}
		for _, f := range files {
			writeFilePatch(&b, f)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return b.String(), nil
}

// FetchCommitDiff fetches a commit and assembles its per-file patches into a
// single unified diff. Files with no text patch (binary or oversized) are
// emitted with a binary marker so the parser records the skip.
func (c *Client) FetchCommitDiff(ctx context.Context, owner, repo, sha string) (string, error) {
	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, &gh.ListOptions{PerPage: 100})
	if err != nil {
		switch statusCode(resp) {
		case http.StatusNotFound:
			return "", fmt.Errorf("commit %s not found in %s/%s", sha, owner, repo)
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", fmt.Errorf("authentication failed: %w", err)
		}
		return "", fmt.Errorf("fetching commit: %w", err)
	}

	var b strings.Builder
	for _, f := range commit.Files {
		writeFilePatch(&b, f)
	}
	return b.String(), nil
}

// writeFilePatch renders one commit file as a unified-diff section. The API
// returns patches starting at the first "@@", so the git and ---/+++ headers
// are reconstructed here.
func writeFilePatch(b *strings.Builder, f *gh.CommitFile) {
	name := f.GetFilename()
	prev := f.GetPreviousFilename()
	if prev == "" {
		prev = name
	}

	fmt.Fprintf(b, "diff --git a/%s b/%s\n", prev, name)
	switch f.GetStatus() {
	case "renamed":
		fmt.Fprintf(b, "rename from %s\n", prev)
		fmt.Fprintf(b, "rename to %s\n", name)
	case "added":
		b.WriteString("new file mode 100644\n")
	case "removed":
		b.WriteString("deleted file mode 100644\n")
	}

	patch := f.GetPatch()
	if patch == "" {
		fmt.Fprintf(b, "Binary files a/%s and b/%s differ\n", prev, name)
		return
	}

	switch f.GetStatus() {
	case "added":
		b.WriteString("--- /dev/null\n")
		fmt.Fprintf(b, "+++ b/%s\n", name)
	case "removed":
		fmt.Fprintf(b, "--- a/%s\n", name)
		b.WriteString("+++ /dev/null\n")
	default:
		fmt.Fprintf(b, "--- a/%s\n", prev)
		fmt.Fprintf(b, "+++ b/%s\n", name)
	}

	b.WriteString(patch)
	if !strings.HasSuffix(patch, "\n") {
		b.WriteByte('\n')
	}
}

// InlineComment is one review comment anchored to a new-side line.
type InlineComment struct {
	Path string
	Line int
	Side string
	Body string
}

// Review is one batch review submission: a summary body plus inline comments.
type Review struct {
	Body     string
	Comments []InlineComment
}

// CreateReview posts one batch review with event COMMENT. The batch is
// all-or-nothing on the platform side, so it is never blindly retried: a
// transient error after the request landed must not duplicate the review.
// If GitHub rejects the comment positions (422), the inline comments are
// folded into the body and a body-only review is posted once instead; the
// returned bool reports that degrade.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, rev Review) (bool, error) {
	req := &gh.PullRequestReviewRequest{
		Body:  gh.Ptr(rev.Body),
		Event: gh.Ptr("COMMENT"),
	}
	for _, cm := range rev.Comments {
		side := cm.Side
		if side == "" {
			side = "RIGHT"
		}
		req.Comments = append(req.Comments, &gh.DraftReviewComment{
			Path: gh.Ptr(cm.Path),
			Line: gh.Ptr(cm.Line),
			Side: gh.Ptr(side),
			Body: gh.Ptr(cm.Body),
		})
	}

	_, resp, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, req)
	if err == nil {
		return false, nil
	}
	if statusCode(resp) != http.StatusUnprocessableEntity || len(rev.Comments) == 0 {
		return false, &PublishError{Op: "create review", StatusCode: statusCode(resp), Err: err}
	}

	fallback := &gh.PullRequestReviewRequest{
		Body:  gh.Ptr(rev.Body + "\n" + foldComments(rev.Comments)),
		Event: gh.Ptr("COMMENT"),
	}
	_, resp, err = c.gh.PullRequests.CreateReview(ctx, owner, repo, number, fallback)
	if err != nil {
		return false, &PublishError{Op: "create body-only review", StatusCode: statusCode(resp), Err: err}
	}
	return true, nil
}

// CreateCommitComment posts one comment on a commit.
func (c *Client) CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error {
	_, resp, err := c.gh.Repositories.CreateComment(ctx, owner, repo, sha, &gh.RepositoryComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return &PublishError{Op: "create commit comment", StatusCode: statusCode(resp), Err: err}
	}
	return nil
}

// PublishError wraps a failed publishing call with enough context to report
// it without aborting the run.
type PublishError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func statusCode(resp *gh.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	url := strings.TrimSpace(string(out))
	return ParseRemoteURL(url)
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	// Strip .git suffix
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
