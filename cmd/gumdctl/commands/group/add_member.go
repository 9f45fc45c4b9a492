package group

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
)

var addMemberAsAdmin bool

var addMemberCmd = &cobra.Command{
	Use:   "add-member <group> <username>",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddMember,
}

func init() {
	addMemberCmd.Flags().BoolVar(&addMemberAsAdmin, "admin", false, "add the member as a gshadow administrator")
}

func runAddMember(cmd *cobra.Command, args []string) error {
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

	if err := eng.AddMember(group, u.UID, addMemberAsAdmin, cmdutil.CallerID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("added %q to group %q", username, group))
	return nil
}
