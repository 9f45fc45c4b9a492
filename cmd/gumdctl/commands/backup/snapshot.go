package backup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/o1-security/gumd/cmd/gumdctl/cmdutil"
	"github.com/o1-security/gumd/pkg/backup"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Upload a snapshot of the account tables",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.Config()
	if err != nil {
		return err
	}
	if !cfg.Backup.Enabled {
		return fmt.Errorf("backup is not enabled in the configuration")
	}

	ctx := context.Background()
	archiver, err := backup.NewFromConfig(ctx, cfg.Backup.Region, cfg.Backup.Bucket, cfg.Backup.Prefix)
	if err != nil {
		return fmt.Errorf("initialize backup archiver: %w", err)
	}

	accounts := cmdutil.Accounts(cfg)
	if err := archiver.Snapshot(ctx, accounts); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("snapshot uploaded to s3://%s/%s", cfg.Backup.Bucket, cfg.Backup.Prefix))
	return nil
}
