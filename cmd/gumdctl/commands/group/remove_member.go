package group

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
)

var removeMemberCmd = &cobra.Command{
	Use:   "remove-member <group> <username>",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemoveMember,
}

func runRemoveMember(cmd *cobra.Command, args []string) error {
	group, username := args[0], args[1]

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	u, found, err := eng.GetUserByName(username)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", username, err)
	}
	if !found {
		return fmt.Errorf("user %q not found", username)
	}

	if err := eng.DeleteMember(group, u.UID, cmdutil.CallerID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("removed %q from group %q", username, group))
	return nil
}
