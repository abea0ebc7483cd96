package gitctx

import (
	"fmt"
	"os/exec"
)

// Staged returns the unified diff of the index against HEAD, as produced by
// git diff --cached. contextLines overrides git's context size when positive.
func Staged(contextLines int) (string, error) {
	args := []string{"diff", "--cached"}
	if contextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", contextLines))
	}
	out, err := gitOutput(args...)
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	return out, nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
