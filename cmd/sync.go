/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nakachan-ing/dtl-cli/internal/util"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local cache with S3",
}

func syncRunE(direction util.Direction) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		config, err := requireConfig()
		if err != nil {
			return err
		}
		slog.Debug("running sync", "direction", direction)
		changed, err := SyncWithS3(cmd.Context(), *config, direction)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if len(changed) == 0 {
			fmt.Println("✅ No changes detected. Everything is up-to-date.")
			return nil
		}
		for _, file := range changed {
			fmt.Println("   -", file)
		}
		fmt.Printf("✅ `dtl sync %s` completed: %d file(s).\n", direction, len(changed))
		return nil
	}
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local cache changes to S3",
	RunE:  syncRunE(util.Push),
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download newer cache files from S3",
	RunE:  syncRunE(util.Pull),
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show differences between the local cache and S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := requireConfig()
		if err != nil {
			return err
		}
		return ShowSyncStatus(cmd.Context(), *config)
	},
}

func init() {
	syncCmd.AddCommand(syncPushCmd, syncPullCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
