package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/internal/cli/prompt"
	"github.com/o1-security/gumd/pkg/engine"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runPasswd,
}

func runPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", 1)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	if _, err := eng.UpdateUser(username, engine.UserUpdate{Secret: &password}, cmdutil.CallerID); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("password updated for %q", username))
	return nil
}
