// Package group implements group management commands for gumdctl.
package group

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for group management.
var Cmd = &cobra.Command{
	Use:   "group",
	Short: "Group management",
	Long: `Create, inspect, delete groups, and manage group membership.

Examples:
  # Create a group
  gumdctl group create editors

  # List all groups
  gumdctl group list

  # Add a user to a group
  gumdctl group add-member editors alice

  # Remove a user from a group
  gumdctl group remove-member editors alice

  # Delete a group
  gumdctl group delete editors`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(addMemberCmd)
	Cmd.AddCommand(removeMemberCmd)
}
