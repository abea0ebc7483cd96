package cli

import (
	"strings"
	"testing"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("high", 10)

	if !strings.Contains(script, hookMarkerStart) {
		t.Error("Script missing start marker")
	}
	if !strings.Contains(script, hookMarkerEnd) {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "codecheck review patch --staged --fail-on high --max-comments 10") {
		t.Error("Script missing codecheck command with correct flags")
	}
	if !strings.Contains(script, "CODECHECK_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if !strings.Contains(script, "exit 1") {
		t.Error("Script missing exit 1 for findings")
	}
	if !strings.Contains(script, "allowing commit") {
		t.Error("Script missing warning for errors")
	}
}

func TestGenerateHookScript_CustomFlags(t *testing.T) {
	script := generateHookScript("medium", 5)

	if !strings.Contains(script, "--fail-on medium") {
		t.Error("Script doesn't use custom fail-on")
	}
	if !strings.Contains(script, "--max-comments 5") {
		t.Error("Script doesn't use custom max-comments")
	}
}

func TestReplaceHookSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	section := generateHookScript("high", 10)

	result := replaceHookSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-other-hook\n") {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("New section should be appended")
	}
	if !strings.Contains(result, "some-other-hook") {
		t.Error("Existing hook content should be preserved")
	}
}

func TestReplaceHookSection_ExistingSection(t *testing.T) {
	oldSection := generateHookScript("low", 20)
	existing := "#!/bin/sh\nbefore\n" + oldSection + "after\n"
	newSection := generateHookScript("high", 5)

	result := replaceHookSection(existing, newSection)

	if !strings.Contains(result, "before") {
		t.Error("Content before the codecheck section should be preserved")
	}
	if !strings.Contains(result, "after") {
		t.Error("Content after the codecheck section should be preserved")
	}
	if !strings.Contains(result, "--fail-on high") {
		t.Error("New section should have updated flags")
	}
	if strings.Contains(result, "--fail-on low") {
		t.Error("Old section should be replaced")
	}
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("high", 10)
	existing := "#!/bin/sh\nbefore\n" + section + "after\n"

	result := removeHookSection(existing)

	if strings.Contains(result, hookMarkerStart) {
		t.Error("Codecheck section should be removed")
	}
	if !strings.Contains(result, "before") {
		t.Error("Content before should be preserved")
	}
	if !strings.Contains(result, "after") {
		t.Error("Content after should be preserved")
	}
}

func TestRemoveHookSection_NoSection(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook\n"
	result := removeHookSection(existing)
	if result != existing {
		t.Error("Content without a codecheck section should be unchanged")
	}
}

func TestReplaceHookSection_NoTrailingNewline(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook"
	section := generateHookScript("high", 10)

	result := replaceHookSection(existing, section)

	if !strings.Contains(result, "some-hook") {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("Section should be appended")
	}
}
