/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/store"
	"github.com/spf13/cobra"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := store.GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		if _, err := os.Stat(configPath); err == nil && !initForce {
			fmt.Println("⚠️ Config file already exists:", configPath)
			fmt.Println("   Use `dtl config` to edit it, or `dtl init --force` to overwrite.")
			return nil
		}

		if err := store.SaveConfigTo(configPath, model.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Println("✅ dtl initialized successfully!")
		fmt.Println("📄 Config file created at:", configPath)
		fmt.Println("   Set user.id and api.token next (`dtl config`).")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
