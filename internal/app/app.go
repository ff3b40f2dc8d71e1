package app

import (
	"context"
	"os"
	"strings"

	"deckhand/internal/auth"
	"deckhand/internal/cli"
	"deckhand/internal/client"
	"deckhand/internal/config"
	"deckhand/internal/container"
	"deckhand/internal/git"
	"deckhand/internal/lock"
	"deckhand/internal/logger"
	"deckhand/internal/runner"
	"deckhand/internal/server"
	"deckhand/internal/status"
)

// App represents the main application
type App struct {
	// Local components (only used in local mode)
	Config     *config.Config
	Git        *git.Manager
	Runtime    *container.DockerRuntime
	Containers *container.Manager
	Status     *status.Aggregator
	Server     *server.Server

	// Client components (only used in client mode)
	Client *client.Client
	CLI    *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application in the appropriate mode
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext starts the application with a context for cancellation
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	if len(args) == 0 || isHelp(args) {
		a.CLI = cli.New()
		a.CLI.SetControllers(nil, nil, nil, nil)
		if len(args) == 0 {
			args = []string{"--help"}
		}
		return a.CLI.ExecuteWithContext(ctx, args)
	}

	serverURL := flagValue(args, "server")
	if serverURL == "" {
		serverURL = os.Getenv("DECKHAND_SERVER")
	}
	if serverURL != "" {
		return a.runClient(ctx, serverURL, args)
	}

	return a.runLocal(ctx, flagValue(args, "config"), args)
}

// runLocal drives the controllers on this machine
func (a *App) runLocal(ctx context.Context, configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.Config = cfg

	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)

	locks := lock.NewKeyed()
	r := runner.NewExecRunner(cfg.Git.Timeout())

	a.Git = git.New(cfg.Git, r, locks)

	rt, err := container.NewDockerRuntime(cfg.Docker.Socket, cfg.Docker.APICallTimeout())
	if err != nil {
		return err
	}
	defer rt.Close()
	a.Runtime = rt

	compose := container.NewCompose(cfg.Docker.ComposeFile, r, cfg.Docker.ComposeCommandTimeout())
	a.Containers = container.NewManager(cfg.Docker, rt, compose, locks)
	a.Status = status.NewAggregator(a.Git, a.Containers)

	a.CLI = cli.New()
	a.CLI.SetControllers(a.Git, a.Containers, a.Status, a.serve)
	return a.CLI.ExecuteWithContext(ctx, args)
}

// runClient drives a remote server through its API
func (a *App) runClient(ctx context.Context, serverURL string, args []string) error {
	password := os.Getenv("DECKHAND_PASSWORD")
	if password == "" {
		password = os.Getenv("DASHBOARD_PASSWORD")
	}

	apiClient, err := client.New(serverURL, password)
	if err != nil {
		return err
	}
	a.Client = apiClient

	logger.WithField("server", apiClient.BaseURL()).Debug("Running in client mode")

	a.CLI = cli.New()
	a.CLI.SetControllers(
		client.NewGitController(apiClient),
		client.NewContainerController(apiClient),
		client.NewStatusProvider(apiClient),
		nil,
	)
	return a.CLI.ExecuteWithContext(ctx, args)
}

// serve validates the repository and compose setup, then runs the API server
// until ctx is cancelled
func (a *App) serve(ctx context.Context) error {
	cfg := a.Config

	logger.WithFields(logger.Fields{
		"repo":         cfg.Git.RepoPath,
		"remote":       cfg.Git.Remote,
		"branch":       cfg.Git.Branch,
		"compose_file": cfg.Docker.ComposeFile,
		"containers":   len(cfg.Docker.Containers),
	}).Info("Starting deckhand")

	if err := a.Git.ValidateRepository(ctx); err != nil {
		return err
	}
	if err := a.Containers.Validate(ctx); err != nil {
		return err
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth.Password, cfg.Auth.SessionExpiry())
	if err != nil {
		return err
	}

	a.Server = server.New(server.ConfigFrom(cfg), server.Dependencies{
		Git:        a.Git,
		Containers: a.Containers,
		Status:     a.Status,
		Auth:       authenticator,
	})
	return a.Server.Start(ctx)
}

func isHelp(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" || arg == "help" {
			return true
		}
	}
	return false
}

// flagValue extracts --name value or --name=value from raw arguments. The
// mode has to be chosen before cobra parses anything.
func flagValue(args []string, name string) string {
	long := "--" + name
	for i, arg := range args {
		switch {
		case arg == long && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, long+"="):
			return strings.TrimPrefix(arg, long+"=")
		}
	}
	if name == "config" {
		for i, arg := range args {
			if arg == "-c" && i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}
