// Package config loads and merges codecheck configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags (passed as overrides)
//  2. Environment variables (CODECHECK_PROVIDER, CODECHECK_MODEL, ...)
//  3. Config file (.codecheck.yaml in the working directory or
//     $XDG_CONFIG_HOME/codecheck/)
//  4. Built-in defaults
//
// Use [Load] to obtain a validated [Config] and [WriteDefault] to write a
// commented starter file.
package config
