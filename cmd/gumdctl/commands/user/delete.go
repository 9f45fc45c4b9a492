package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/internal/cli/prompt"
)

var (
	deleteForce      bool
	deleteRemoveHome bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
	deleteCmd.Flags().BoolVar(&deleteRemoveHome, "remove-home", false, "also delete the user's home directory")
}

func runDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete user %q?", username), deleteForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	if err := eng.DeleteUser(username, deleteRemoveHome, cmdutil.CallerID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("user %q deleted", username))
	return nil
}
