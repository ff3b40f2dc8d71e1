package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/interfaces"
	"deckhand/internal/types"

	"github.com/spf13/cobra"
)

// lifecycleAction describes one container verb for both its single and bulk forms
type lifecycleAction struct {
	use    string
	short  string
	past   string
	single func(ctx context.Context, name string) types.OperationResult
	all    func(ctx context.Context) types.OperationResult
}

// ContainerCommands creates the container lifecycle commands
func ContainerCommands(containers interfaces.ContainerController) []*cobra.Command {
	commands := []*cobra.Command{}

	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List managed containers and their state",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := containers.GetAllStatuses(cmd.Context())
			if err != nil {
				return err
			}
			printContainers(cmd.OutOrStdout(), records)
			return nil
		},
	}
	commands = append(commands, listCmd)

	fromErr := func(op func(context.Context, string) error) func(context.Context, string) types.OperationResult {
		return func(ctx context.Context, name string) types.OperationResult {
			if err := op(ctx, name); err != nil {
				result := types.Failed("", err)
				result.Container = name
				return result
			}
			return types.Succeeded("")
		}
	}

	// Closures rather than method values: help builds this tree without a controller
	actions := []lifecycleAction{
		{
			use: "start", short: "Start a container, or all of them in order", past: "started",
			single: fromErr(func(ctx context.Context, name string) error { return containers.Start(ctx, name) }),
			all:    func(ctx context.Context) types.OperationResult { return containers.StartAll(ctx) },
		},
		{
			use: "stop", short: "Stop a container, or all of them in order", past: "stopped",
			single: fromErr(func(ctx context.Context, name string) error { return containers.Stop(ctx, name) }),
			all:    func(ctx context.Context) types.OperationResult { return containers.StopAll(ctx) },
		},
		{
			use: "restart", short: "Restart a container, or all of them in order", past: "restarted",
			single: fromErr(func(ctx context.Context, name string) error { return containers.Restart(ctx, name) }),
			all:    func(ctx context.Context) types.OperationResult { return containers.RestartAll(ctx) },
		},
		{
			use: "update", short: "Pull the newest image and recreate a container, or the whole project", past: "updated",
			single: func(ctx context.Context, name string) types.OperationResult { return containers.UpdateContainer(ctx, name) },
			all:    func(ctx context.Context) types.OperationResult { return containers.UpdateAll(ctx) },
		},
	}
	for _, action := range actions {
		commands = append(commands, lifecycleCommand(action))
	}

	return commands
}

func lifecycleCommand(action lifecycleAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action.use + " [name]",
		Short: action.short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if all == (len(args) == 1) {
				return errors.New(errors.ErrInvalidInput, "give either a container name or --all")
			}

			var result types.OperationResult
			subject := "All containers"
			if all {
				result = action.all(cmd.Context())
			} else {
				subject = "Container " + args[0]
				result = action.single(cmd.Context(), args[0])
			}

			out := cmd.OutOrStdout()
			if output := strings.TrimSpace(result.Output); output != "" {
				fmt.Fprintln(out, output)
			}
			if !result.Success {
				return resultError(result)
			}
			fmt.Fprintf(out, "%s %s\n", subject, action.past)
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "Apply to every managed container")
	return cmd
}

// resultError turns a failed result into the error the command exits with
func resultError(result types.OperationResult) error {
	code := result.Kind
	if code == "" {
		code = errors.ErrInternal
	}
	message := result.Error
	if result.Container != "" {
		message = fmt.Sprintf("%s: %s", result.Container, message)
	}
	if len(result.Completed) > 0 {
		message = fmt.Sprintf("%s (completed: %s)", message, strings.Join(result.Completed, ", "))
	}
	return errors.New(code, message)
}

func printContainers(out io.Writer, records []types.ContainerRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "  No containers found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSTATE\tIMAGE\tID")
	for _, r := range records {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", r.Name, r.State, r.Image, shortID(r.ID))
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func shorten(hash string) string {
	if len(hash) > constants.ShortHashLength {
		return hash[:constants.ShortHashLength]
	}
	return hash
}
