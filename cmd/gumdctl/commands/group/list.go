package group

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/pkg/account"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all groups",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

type groupListTable []*account.Group

func (t groupListTable) Headers() []string {
	return []string{"NAME", "GID", "TYPE", "MEMBERS"}
}

func (t groupListTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, g := range t {
		members := "-"
		if len(g.Members) > 0 {
			members = strings.Join(g.Members, ",")
		}
		rows = append(rows, []string{g.Name, fmt.Sprint(g.GID), string(g.Type), members})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := cmdutil.Engine()
	if err != nil {
		return err
	}

	groups, err := eng.ListGroups()
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, groups, groupListTable(groups))
}
