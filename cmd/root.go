package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Terminal client for the learning assistant",
	Long: `Sage is a terminal client for the learning platform's AI assistant.
It streams responses as they are generated, keeps the local transcript in
sync with the server record, and handles image attachments.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := RunApplication(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.sage/settings.yaml)")

	rootCmd.PersistentFlags().StringP("server", "s", "", "base URL of the platform API")
	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "access token for the platform API")
	viper.BindPFlag("server.token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().StringP("model", "m", "", "assistant model to request")
	viper.BindPFlag("chat.model", rootCmd.PersistentFlags().Lookup("model"))

	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}
