package user

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/pkg/account"
)

var getCmd = &cobra.Command{
	Use:   "get <username>",
	Short: "Show a single user's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// singleUserTable renders one user as a field/value table.
type singleUserTable struct{ u *account.User }

func (t singleUserTable) Headers() []string { return []string{"FIELD", "VALUE"} }

func (t singleUserTable) Rows() [][]string {
	u := t.u
	return [][]string{
		{"Username", u.Username},
		{"UID", fmt.Sprint(u.UID)},
		{"GID", fmt.Sprint(u.GID)},
		{"Type", string(u.Type)},
		{"Realname", cmdutil.EmptyOr(u.Gecos.Realname, "-")},
		{"Home", cmdutil.EmptyOr(u.Home, "-")},
		{"Shell", cmdutil.EmptyOr(u.Shell, "-")},
		{"Last Change Day", optionalInt64(u.LastChangeDay)},
	}
}

func optionalInt64(p *int64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

func runGet(cmd *cobra.Command, args []string) error {
	username := args[0]

	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	u, found, err := eng.GetUserByName(username)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !found {
		return fmt.Errorf("user %q not found", username)
	}

	return cmdutil.PrintResource(os.Stdout, u, singleUserTable{u})
}
