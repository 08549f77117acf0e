// Package cmd implements the cobra command tree for the mailbot CLI:
// sending campaigns, dry-run validation, credential management, sample data
// and configuration handling.
package cmd
