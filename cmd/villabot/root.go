package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "villabot",
	Short: "villabot hosts Villa platform bots behind a webhook endpoint",
	Long: `villabot is a runtime for Villa chat platform bots. It receives
webhook-delivered events, verifies the platform signature, decodes them
into typed events and dispatches them to configured reply rules, which
answer through the platform REST API. One process can host any number
of bot identities.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
