// Package textutil provides small text helpers shared by the CLI and the
// capture runner: job-name sanitization for output folders and frame file
// prefixes, accent folding, and a generic conditional.
package textutil
