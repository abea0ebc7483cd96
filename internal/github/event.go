package github

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ActionContext is the review target resolved from GitHub Actions environment
// variables and the workflow event payload.
type ActionContext struct {
	EventName string
	Owner     string
	Repo      string
	PRNumber  int    // set for pull request events
	SHA       string // set for push events
}

// eventPayload is the subset of the workflow event JSON needed to locate the
// pull request. Fields vary by event type, so all are optional.
type eventPayload struct {
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Issue struct {
		Number      int       `json:"number"`
		PullRequest *struct{} `json:"pull_request"`
	} `json:"issue"`
	Number int `json:"number"`
}

// DetectAction resolves the review target from the GitHub Actions environment.
// Pull request events resolve to a PR number, push events to a commit SHA.
func DetectAction() (*ActionContext, error) {
	eventName := os.Getenv("GITHUB_EVENT_NAME")
	if eventName == "" {
		return nil, fmt.Errorf("GITHUB_EVENT_NAME not set (not running in GitHub Actions?)")
	}

	repoFull := os.Getenv("GITHUB_REPOSITORY")
	owner, repo, ok := strings.Cut(repoFull, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("GITHUB_REPOSITORY not set or malformed: %q", repoFull)
	}

	ac := &ActionContext{EventName: eventName, Owner: owner, Repo: repo}

	switch eventName {
	case "pull_request", "pull_request_target", "issue_comment":
		num, err := prNumberFromEnv()
		if err != nil {
			return nil, err
		}
		ac.PRNumber = num
	case "push":
		sha := os.Getenv("GITHUB_SHA")
		if sha == "" {
			return nil, fmt.Errorf("GITHUB_SHA not set for push event")
		}
		ac.SHA = sha
	default:
		return nil, fmt.Errorf("unsupported GitHub event: %s", eventName)
	}
	return ac, nil
}

// prNumberFromEnv finds the pull request number, preferring the event payload
// and falling back to GITHUB_REF (refs/pull/N/merge).
func prNumberFromEnv() (int, error) {
	if path := os.Getenv("GITHUB_EVENT_PATH"); path != "" {
		if num, ok := prNumberFromPayload(path); ok {
			return num, nil
		}
	}
	if ref := os.Getenv("GITHUB_REF"); ref != "" {
		parts := strings.Split(ref, "/")
		if len(parts) >= 3 && parts[0] == "refs" && parts[1] == "pull" {
			if num, err := strconv.Atoi(parts[2]); err == nil && num > 0 {
				return num, nil
			}
		}
	}
	return 0, fmt.Errorf("could not determine pull request number from event payload or GITHUB_REF")
}

func prNumberFromPayload(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var ev eventPayload
	if err := json.Unmarshal(data, &ev); err != nil {
		return 0, false
	}
	if ev.PullRequest.Number > 0 {
		return ev.PullRequest.Number, true
	}
	if ev.Issue.PullRequest != nil && ev.Issue.Number > 0 {
		return ev.Issue.Number, true
	}
	if ev.Number > 0 {
		return ev.Number, true
	}
	return 0, false
}
