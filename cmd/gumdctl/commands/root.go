// Package commands implements the gumdctl CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	backupcmd "github.com/o1-security/gumd/cmd/gumdctl/commands/backup"
	groupcmd "github.com/o1-security/gumd/cmd/gumdctl/commands/group"
	usercmd "github.com/o1-security/gumd/cmd/gumdctl/commands/user"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "gumdctl",
	Short: "Administrative client for gumd, the account-management daemon",
	Long: `gumdctl manages the user and group accounts gumd owns.

Use "gumdctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(usercmd.Cmd)
	rootCmd.AddCommand(groupcmd.Cmd)
	rootCmd.AddCommand(backupcmd.Cmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.Printf("gumdctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return err
	},
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
