package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marchholm/sage/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := config.Load(cfgFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := config.WriteDefaultConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		path := config.Get().ConfigFile
		if path == "" {
			path = config.BuildSettingsPath("settings.yaml")
		}
		fmt.Printf("Wrote %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
