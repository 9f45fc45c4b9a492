package group

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/internal/cli/prompt"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete group %q?", name), deleteForce)
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

	if err := eng.DeleteGroup(name, cmdutil.CallerID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("group %q deleted", name))
	return nil
}
