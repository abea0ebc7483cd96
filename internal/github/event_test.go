package github

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearActionEnv blanks every variable DetectAction reads so ambient CI
// values cannot leak into a test.
func clearActionEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_EVENT_NAME", "GITHUB_REPOSITORY", "GITHUB_EVENT_PATH", "GITHUB_REF", "GITHUB_SHA"} {
		t.Setenv(k, "")
	}
}

func writeEventPayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func TestDetectAction_PullRequest(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_EVENT_PATH", writeEventPayload(t, `{"pull_request":{"number":7}}`))

	ac, err := DetectAction()
	if err != nil {
		t.Fatalf("DetectAction error: %v", err)
	}
	if ac.Owner != "owner" || ac.Repo != "repo" {
		t.Errorf("repo = %s/%s, want owner/repo", ac.Owner, ac.Repo)
	}
	if ac.PRNumber != 7 {
		t.Errorf("PRNumber = %d, want 7", ac.PRNumber)
	}
	if ac.SHA != "" {
		t.Errorf("SHA = %q, want empty", ac.SHA)
	}
}

func TestDetectAction_RefFallback(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_REF", "refs/pull/123/merge")

	ac, err := DetectAction()
	if err != nil {
		t.Fatalf("DetectAction error: %v", err)
	}
	if ac.PRNumber != 123 {
		t.Errorf("PRNumber = %d, want 123", ac.PRNumber)
	}
}

func TestDetectAction_IssueComment(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "issue_comment")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_EVENT_PATH", writeEventPayload(t, `{"issue":{"number":9,"pull_request":{"url":"x"}}}`))

	ac, err := DetectAction()
	if err != nil {
		t.Fatalf("DetectAction error: %v", err)
	}
	if ac.PRNumber != 9 {
		t.Errorf("PRNumber = %d, want 9", ac.PRNumber)
	}
}

func TestDetectAction_Push(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")
	t.Setenv("GITHUB_SHA", "abc1234def")

	ac, err := DetectAction()
	if err != nil {
		t.Fatalf("DetectAction error: %v", err)
	}
	if ac.SHA != "abc1234def" {
		t.Errorf("SHA = %q, want abc1234def", ac.SHA)
	}
	if ac.PRNumber != 0 {
		t.Errorf("PRNumber = %d, want 0", ac.PRNumber)
	}
}

func TestDetectAction_UnsupportedEvent(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "schedule")
	t.Setenv("GITHUB_REPOSITORY", "owner/repo")

	_, err := DetectAction()
	if err == nil {
		t.Fatal("Expected error for unsupported event")
	}
	if !strings.Contains(err.Error(), "unsupported GitHub event: schedule") {
		t.Errorf("error = %q", err)
	}
}

func TestDetectAction_NotInActions(t *testing.T) {
	clearActionEnv(t)

	_, err := DetectAction()
	if err == nil {
		t.Fatal("Expected error without GITHUB_EVENT_NAME")
	}
	if !strings.Contains(err.Error(), "GITHUB_EVENT_NAME") {
		t.Errorf("error = %q", err)
	}
}

func TestDetectAction_MalformedRepository(t *testing.T) {
	clearActionEnv(t)
	t.Setenv("GITHUB_EVENT_NAME", "push")
	t.Setenv("GITHUB_REPOSITORY", "just-a-name")

	_, err := DetectAction()
	if err == nil {
		t.Fatal("Expected error for malformed GITHUB_REPOSITORY")
	}
}

func TestPRNumberFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantNum int
		wantOK  bool
	}{
		{"pull request event", `{"pull_request":{"number":5}}`, 5, true},
		{"issue comment on PR", `{"issue":{"number":3,"pull_request":{}}}`, 3, true},
		{"issue comment on plain issue", `{"issue":{"number":3}}`, 0, false},
		{"bare number", `{"number":12}`, 12, true},
		{"empty payload", `{}`, 0, false},
		{"invalid JSON", `{nope`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEventPayload(t, tt.payload)
			num, ok := prNumberFromPayload(path)
			if num != tt.wantNum || ok != tt.wantOK {
				t.Errorf("prNumberFromPayload = (%d, %v), want (%d, %v)", num, ok, tt.wantNum, tt.wantOK)
			}
		})
	}
}

func TestPRNumberFromPayload_MissingFile(t *testing.T) {
	if _, ok := prNumberFromPayload(filepath.Join(t.TempDir(), "missing.json")); ok {
		t.Error("expected ok = false for missing file")
	}
}
