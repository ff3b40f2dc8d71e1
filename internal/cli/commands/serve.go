package commands

import (
	"context"

	"deckhand/internal/errors"

	"github.com/spf13/cobra"
)

// ServeFunc starts the HTTP server and blocks until ctx is cancelled
type ServeFunc func(ctx context.Context) error

// ServeCommand creates the serve command
func ServeCommand(serve ServeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the deckhand API server",
		Long: `Start the deckhand HTTP API server. The repository and compose file are
validated first; the server refuses to start if either is unusable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serve == nil {
				return errors.New(errors.ErrInvalidInput, "serve runs on the managed host and cannot be combined with --server")
			}
			return serve(cmd.Context())
		},
	}
}
