// Package backup implements the gumdctl subcommand that triggers an
// ad hoc snapshot of the account tables, since the daemon itself only
// constructs the archiver and otherwise leaves snapshotting to the
// operator (see SPEC_FULL.md's backup archiver component).
package backup

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for backup operations.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the account tables to the configured S3 bucket",
	Long: `Upload a snapshot of the passwd, shadow, group, and gshadow tables
to the S3 bucket and prefix configured under the "backup" config section.

Examples:
  # Take a snapshot now
  gumdctl backup snapshot`,
}

func init() {
	Cmd.AddCommand(snapshotCmd)
}
