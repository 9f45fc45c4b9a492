package group

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/internal/cli/prompt"
	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/engine"
)

var (
	createType   string
	createGID    uint32
	createSecret string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new group",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", string(account.GroupTypeUser), "group type (system|user)")
	createCmd.Flags().Uint32Var(&createGID, "gid", 0, "preferred gid (0 lets gumd allocate one)")
	createCmd.Flags().StringVar(&createSecret, "password", "", "group password (prompted if omitted)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	secret := createSecret
	if secret == "" {
		var err error
		secret, err = prompt.PasswordWithConfirmation("Group password (empty for none)", "Confirm password", 0)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	req := engine.AddGroupRequest{
		Name:   name,
		Type:   account.GroupType(createType),
		Secret: secret,
	}
	if createGID != 0 {
		gid := createGID
		req.PreferredGID = &gid
	}

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	g, err := eng.AddGroup(req, cmdutil.CallerID)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("group %q created with gid %d", g.Name, g.GID))
	return nil
}
