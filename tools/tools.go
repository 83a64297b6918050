//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// golangci-lint - Linter aggregator used in CI
//   Install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@v1.64.8
//   Version: v1.64.8 (pinned 2025-11-03)
//   Docs: https://golangci-lint.run
//
// mockgen runs through `go run go.uber.org/mock/mockgen` from the generate
// directives in internal/mocks, so it is version-locked by go.mod.
