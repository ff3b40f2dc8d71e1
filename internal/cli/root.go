package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deckhand",
		Short: "Keep a deployed git checkout and its compose containers in sync",
		Long: `deckhand tracks one git repository and the containers defined in one
docker compose file. It fetches and fast-forwards the repository, starts,
stops, restarts and updates the containers, and serves the same controls
over an authenticated HTTP API.

Commands run against the local machine unless --server (or DECKHAND_SERVER)
points them at a running deckhand server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// The app reads these before the command tree is built; they are
	// declared here so cobra accepts them
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("server", "", "URL of a deckhand server to control remotely")

	return rootCmd
}
