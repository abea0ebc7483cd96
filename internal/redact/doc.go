// Package redact removes secrets from diff content before it is sent to any
// LLM provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private key blocks, AWS access key IDs and secret access keys, bearer
// tokens, and provider-specific tokens (Anthropic, OpenAI, GitHub, Slack).
// Redaction functions report how many replacements were made so callers can
// log that content was altered.
//
// Path-based redaction is also supported: files whose paths match configured
// glob patterns have their entire content replaced with [REDACTED] rather than
// being scanned line by line. Path patterns use the same glob semantics as
// exclude_patterns.
package redact
