// Package user implements user management commands for gumdctl.
package user

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for user management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
	Long: `Create, inspect, update, and delete user accounts.

Examples:
  # Add a user
  gumdctl user add alice --type normal

  # Get user details
  gumdctl user get alice

  # List all users
  gumdctl user list

  # Change a user's password
  gumdctl user passwd alice

  # Delete a user, keeping its home directory
  gumdctl user delete alice`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(passwdCmd)
}
