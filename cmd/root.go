package cmd

import (
	"fmt"
	"os"

	"melodex/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "melodex",
	Short: "Melodex is a personal music-library service.",
	Run: func(cmd *cobra.Command, args []string) {
		// Running without a subcommand starts the server.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
