package user

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/pkg/account"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

type userListTable []*account.User

func (t userListTable) Headers() []string {
	return []string{"USERNAME", "UID", "GID", "TYPE", "HOME", "SHELL"}
}

func (t userListTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, u := range t {
		rows = append(rows, []string{
			u.Username, fmt.Sprint(u.UID), fmt.Sprint(u.GID), string(u.Type),
			cmdutil.EmptyOr(u.Home, "-"), cmdutil.EmptyOr(u.Shell, "-"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	users, err := eng.ListUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, users, userListTable(users))
}
