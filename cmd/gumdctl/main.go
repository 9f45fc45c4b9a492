// Command gumdctl is the administrative CLI for gumd: create, inspect,
// and delete users and groups, and manage group membership.
package main

import (
	"fmt"
	"os"

	"github.com/o1-security/gumd/cmd/gumdctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
