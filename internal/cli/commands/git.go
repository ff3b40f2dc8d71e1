package commands

import (
	"fmt"
	"strings"

	"deckhand/internal/constants"
	"deckhand/internal/interfaces"
	"deckhand/internal/types"

	"github.com/spf13/cobra"
)

// GitCommands creates the repository sync commands
func GitCommands(git interfaces.GitController) []*cobra.Command {
	commands := []*cobra.Command{}

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the tracked branch from the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := git.Fetch(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Fetch completed")
			return nil
		},
	}
	commands = append(commands, fetchCmd)

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Fast-forward the checkout to the tracked branch",
		Long: `Fast-forward the checkout to the remote branch. If local history has
diverged the pull is refused and nothing is merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := git.Pull(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outcome.AlreadyUpToDate {
				fmt.Fprintln(out, "Already up to date")
				return nil
			}
			fmt.Fprintf(out, "Pulled changes, %d file(s) changed\n", outcome.FilesChanged)
			return nil
		},
	}
	commands = append(commands, pullCmd)

	logCmd := &cobra.Command{
		Use:   "log [hash]",
		Short: "Show recent commits, pending commits, or one commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				commit, err := git.GetCommitInfo(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "commit %s\n", commit.Hash)
				fmt.Fprintf(out, "Author: %s <%s>\n\n", commit.AuthorName, commit.AuthorEmail)
				fmt.Fprintf(out, "    %s\n", commit.Subject)
				if commit.Body != "" {
					fmt.Fprintln(out)
					for _, line := range strings.Split(commit.Body, "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
				}
				return nil
			}

			pending, _ := cmd.Flags().GetBool("pending")
			limit, _ := cmd.Flags().GetInt("limit")

			var commits []types.CommitInfo
			var err error
			if pending {
				commits, err = git.PendingCommits(ctx)
			} else {
				commits, err = git.RecentCommits(ctx, limit)
			}
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				fmt.Fprintln(out, "No commits")
				return nil
			}
			for _, c := range commits {
				fmt.Fprintf(out, "%s %s (%s)\n", c.ShortHash, c.Subject, c.AuthorName)
			}
			return nil
		},
	}
	logCmd.Flags().Bool("pending", false, "List the commits a pull would bring in")
	logCmd.Flags().IntP("limit", "n", constants.DefaultRecentCommits, "Number of recent commits to show")
	commands = append(commands, logCmd)

	return commands
}
