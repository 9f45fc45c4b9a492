package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/internal/cli/prompt"
	"github.com/o1-security/gumd/pkg/account"
	"github.com/o1-security/gumd/pkg/engine"
)

var (
	addType        string
	addUID         uint32
	addGecos       string
	addShell       string
	addGroups      string
	addPassword    string
)

var addCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addType, "type", string(account.UserTypeNormal), "account type (normal|admin|system|guest)")
	addCmd.Flags().Uint32Var(&addUID, "uid", 0, "preferred uid (0 lets gumd allocate one)")
	addCmd.Flags().StringVar(&addGecos, "gecos", "", "GECOS field (real name, etc.)")
	addCmd.Flags().StringVar(&addShell, "shell", "", "login shell (default: configured default)")
	addCmd.Flags().StringVar(&addGroups, "groups", "", "comma-separated supplementary groups")
	addCmd.Flags().StringVar(&addPassword, "password", "", "password (prompted if omitted)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password := addPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 1)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	req := engine.AddUserRequest{
		Username:    username,
		Type:        account.UserType(addType),
		Gecos:       account.ParseGecos(addGecos),
		Shell:       addShell,
		Secret:      password,
		ExtraGroups: cmdutil.ParseCommaSeparatedList(addGroups),
	}
	if addUID != 0 {
		req.PreferredUID = &addUID
	}

	u, err := eng.AddUser(req, cmdutil.CallerID)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("user %q added (uid=%d, gid=%d)", u.Username, u.UID, u.GID))
	return nil
}
