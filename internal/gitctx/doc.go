// Package gitctx reads local diffs from git for patch-mode review.
//
// [Staged] shells out to git diff --cached so the pre-commit hook and
// codecheck review patch --staged can review the index without the caller
// piping a diff in.
package gitctx
