package cli

import (
	"context"
	"io"

	"deckhand/internal/cli/commands"
	"deckhand/internal/interfaces"

	"github.com/spf13/cobra"
)

// Manager handles CLI operations
type Manager struct {
	git        interfaces.GitController
	containers interfaces.ContainerController
	status     interfaces.StatusProvider
	serve      commands.ServeFunc
	rootCmd    *cobra.Command
}

// New creates a new CLI manager
func New() *Manager {
	return &Manager{rootCmd: createRootCommand()}
}

// SetControllers wires the controllers the commands delegate to and builds
// the command tree. serve may be nil when the server cannot run here.
func (m *Manager) SetControllers(git interfaces.GitController, containers interfaces.ContainerController, status interfaces.StatusProvider, serve commands.ServeFunc) {
	m.git = git
	m.containers = containers
	m.status = status
	m.serve = serve

	m.setupCommands()
}

// SetOutput redirects command output, for tests
func (m *Manager) SetOutput(w io.Writer) {
	m.rootCmd.SetOut(w)
	m.rootCmd.SetErr(w)
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	m.rootCmd.AddCommand(commands.ServeCommand(m.serve))
	m.rootCmd.AddCommand(commands.StatusCommand(m.status))

	for _, cmd := range commands.GitCommands(m.git) {
		m.rootCmd.AddCommand(cmd)
	}

	containersCmd := &cobra.Command{
		Use:     "containers",
		Short:   "Container lifecycle commands",
		Aliases: []string{"container", "c"},
	}
	for _, cmd := range commands.ContainerCommands(m.containers) {
		containersCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(containersCmd)
}
