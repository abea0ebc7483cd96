package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> codecheck pre-commit hook >>>"
	hookMarkerEnd   = "# <<< codecheck pre-commit hook <<<"
)

var (
	hookFailOn      string
	hookMaxComments int
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install codecheck as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		section := generateHookScript(hookFailOn, hookMaxComments)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			// No existing hook — create new file
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating hooks directory: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed codecheck pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the codecheck pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "No pre-commit hook found.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		content := removeHookSection(string(existing))

		// If only a shebang (and whitespace) remains, delete the file entirely
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing hook file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Removed codecheck pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Removed codecheck section from %s\n", hookPath)
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the pre-commit hook is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		data, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "Pre-commit hook is not installed.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if strings.Contains(string(data), hookMarkerStart) {
			fmt.Fprintf(os.Stdout, "Pre-commit hook is installed at %s\n", hookPath)
		} else {
			fmt.Fprintf(os.Stdout, "A pre-commit hook exists at %s, but codecheck is not part of it.\n", hookPath)
		}
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-dir failed)")
	}
	gitDir := strings.TrimSpace(string(out))
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

func generateHookScript(failOn string, maxComments int) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "codecheck review patch --staged --fail-on %s --max-comments %d\n", failOn, maxComments)
	b.WriteString("CODECHECK_EXIT=$?\n")
	b.WriteString("if [ $CODECHECK_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"codecheck: findings at or above threshold, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $CODECHECK_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"codecheck: warning — review failed (exit $CODECHECK_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		// No existing codecheck section — append
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	// Replace existing section
	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	// Trim leading newline from after to avoid double newlines
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Fail on severity threshold (none, low, medium, high)")
	hookInstallCmd.Flags().IntVar(&hookMaxComments, "max-comments", 10, "Maximum number of comments in the hook report")
}
