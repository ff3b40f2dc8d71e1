package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"deckhand/internal/interfaces"
	"deckhand/internal/status"

	"github.com/spf13/cobra"
)

// StatusCommand creates the status command
func StatusCommand(provider interfaces.StatusProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show repository and container status",
		Long: `Show how the local checkout compares with the last fetched remote branch,
and the state of every managed container. Run fetch first for an up to date
comparison.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			snapshot := provider.GetSnapshot(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			}
			printSnapshot(out, snapshot)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the snapshot as JSON")
	return cmd
}

func printSnapshot(out io.Writer, snapshot *status.Snapshot) {
	fmt.Fprintln(out, "Repository")
	switch {
	case snapshot.GitError != "":
		fmt.Fprintf(out, "  unavailable: %s\n", snapshot.GitError)
	case snapshot.Git != nil:
		fmt.Fprintf(out, "  Branch:  %s\n", snapshot.Git.CurrentBranch)
		fmt.Fprintf(out, "  Local:   %s\n", shorten(snapshot.Git.LocalCommit))
		fmt.Fprintf(out, "  Remote:  %s\n", shorten(snapshot.Git.RemoteCommit))
		if snapshot.Git.UpdatesAvailable {
			fmt.Fprintln(out, "  Updates available")
		} else {
			fmt.Fprintln(out, "  Up to date")
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Containers")
	if snapshot.ContainersError != "" {
		fmt.Fprintf(out, "  unavailable: %s\n", snapshot.ContainersError)
		return
	}
	printContainers(out, snapshot.Containers)
}
