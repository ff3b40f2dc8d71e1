package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"deckhand/internal/auth"
	"deckhand/internal/constants"
	"deckhand/internal/container"
	"deckhand/internal/errors"
	"deckhand/internal/logger"
	"deckhand/internal/types"

	"github.com/labstack/echo/v4"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api", auth.Middleware(s.auth, "/api/login"))
	api.POST("/login", s.handleLogin)
	api.POST("/logout", s.handleLogout)
	api.GET("/status", s.handleStatus)

	git := api.Group("/git")
	git.GET("/status", s.handleGitStatus)
	git.GET("/commits", s.handleRecentCommits)
	git.GET("/commits/:hash", s.handleGetCommit)
	git.GET("/pending", s.handlePendingCommits)
	git.POST("/fetch", s.handleFetch)
	git.POST("/pull", s.handlePull)

	containers := api.Group("/containers")
	containers.GET("", s.handleListContainers)
	containers.POST("/start-all", s.handleStartAll)
	containers.POST("/stop-all", s.handleStopAll)
	containers.POST("/restart-all", s.handleRestartAll)
	containers.POST("/update-all", s.handleUpdateAll)
	containers.GET("/:name", s.handleGetContainer)
	containers.POST("/:name/start", s.handleStartContainer)
	containers.POST("/:name/stop", s.handleStopContainer)
	containers.POST("/:name/restart", s.handleRestartContainer)
	containers.POST("/:name/update", s.handleUpdateContainer)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if req.Password == "" {
		return errors.BadRequest("Password is required", "")
	}

	token, err := s.auth.Login(req.Password)
	if err != nil {
		logger.GetLogger(c).Warn("Failed login attempt")
		return errors.ToHTTPError(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
	})
	logger.GetLogger(c).Info("Session created")

	return c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token})
}

func (s *Server) handleLogout(c echo.Context) error {
	s.auth.Logout(auth.TokenFromRequest(c))

	c.SetCookie(&http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return c.JSON(http.StatusOK, ApiResponse{Success: true, Message: "Logged out"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.status.GetSnapshot(c.Request().Context()))
}

func (s *Server) handleGitStatus(c echo.Context) error {
	snapshot, err := s.git.GetStatus(c.Request().Context())
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleRecentCommits(c echo.Context) error {
	limit := constants.DefaultRecentCommits
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.MaxRecentCommits {
			return errors.BadRequest("Invalid limit",
				fmt.Sprintf("limit must be between 1 and %d", constants.MaxRecentCommits))
		}
		limit = n
	}

	commits, err := s.git.RecentCommits(c.Request().Context(), limit)
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, CommitsResponse{Commits: commits, Total: len(commits)})
}

func (s *Server) handlePendingCommits(c echo.Context) error {
	commits, err := s.git.PendingCommits(c.Request().Context())
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, CommitsResponse{Commits: commits, Total: len(commits)})
}

func (s *Server) handleGetCommit(c echo.Context) error {
	commit, err := s.git.GetCommitInfo(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, commit)
}

func (s *Server) handleFetch(c echo.Context) error {
	if err := s.git.Fetch(c.Request().Context()); err != nil {
		return respondResult(c, failedResult(err), "")
	}
	return respondResult(c, types.Succeeded(""), "Fetch completed")
}

func (s *Server) handlePull(c echo.Context) error {
	outcome, err := s.git.Pull(c.Request().Context())
	if err != nil {
		return respondResult(c, failedResult(err), "")
	}

	message := fmt.Sprintf("Pulled changes, %d file(s) changed", outcome.FilesChanged)
	if outcome.AlreadyUpToDate {
		message = "Already up to date"
	}
	return c.JSON(http.StatusOK, ApiResponse{
		Success: true,
		Message: message,
		Output:  outcome.RawOutput,
		Data:    outcome,
	})
}

func (s *Server) handleListContainers(c echo.Context) error {
	records, err := s.containers.GetAllStatuses(c.Request().Context())
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, ContainersResponse{Containers: records, Total: len(records)})
}

func (s *Server) handleGetContainer(c echo.Context) error {
	record, err := s.containers.GetStatus(c.Request().Context(), c.Param("name"))
	if err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleStartContainer(c echo.Context) error {
	return s.singleAction(c, "start", "started", s.containers.Start)
}

func (s *Server) handleStopContainer(c echo.Context) error {
	return s.singleAction(c, "stop", "stopped", s.containers.Stop)
}

func (s *Server) handleRestartContainer(c echo.Context) error {
	return s.singleAction(c, "restart", "restarted", s.containers.Restart)
}

func (s *Server) handleUpdateContainer(c echo.Context) error {
	name := c.Param("name")
	result := s.containers.UpdateContainer(c.Request().Context(), name)
	container.LogOperationResult(c.Request().Context(), "update", result)
	return respondResult(c, result, fmt.Sprintf("Container %s updated", name))
}

func (s *Server) handleStartAll(c echo.Context) error {
	result := s.containers.StartAll(c.Request().Context())
	container.LogOperationResult(c.Request().Context(), "start-all", result)
	return respondResult(c, result, "All containers started")
}

func (s *Server) handleStopAll(c echo.Context) error {
	result := s.containers.StopAll(c.Request().Context())
	container.LogOperationResult(c.Request().Context(), "stop-all", result)
	return respondResult(c, result, "All containers stopped")
}

func (s *Server) handleRestartAll(c echo.Context) error {
	result := s.containers.RestartAll(c.Request().Context())
	container.LogOperationResult(c.Request().Context(), "restart-all", result)
	return respondResult(c, result, "All containers restarted")
}

func (s *Server) handleUpdateAll(c echo.Context) error {
	result := s.containers.UpdateAll(c.Request().Context())
	container.LogOperationResult(c.Request().Context(), "update-all", result)
	return respondResult(c, result, "All containers updated")
}

func (s *Server) singleAction(c echo.Context, operation, verb string, op func(context.Context, string) error) error {
	name := c.Param("name")
	ctx := c.Request().Context()

	result := types.Succeeded("")
	if err := op(ctx, name); err != nil {
		result = failedResult(err)
		result.Container = name
	}
	container.LogOperationResult(ctx, operation, result)
	return respondResult(c, result, fmt.Sprintf("Container %s %s", name, verb))
}

// respondResult writes an operation result, choosing the status from its
// error code when it failed
func respondResult(c echo.Context, result types.OperationResult, message string) error {
	if result.Success {
		return c.JSON(http.StatusOK, ApiResponse{
			Success:   true,
			Message:   message,
			Output:    result.Output,
			Completed: result.Completed,
		})
	}

	return c.JSON(errors.HTTPStatus(result.Kind), ApiResponse{
		Success:   false,
		Error:     result.Error,
		Output:    result.Output,
		Code:      result.Kind,
		Container: result.Container,
		Completed: result.Completed,
	})
}

// failedResult converts a controller error, keeping any captured output
func failedResult(err error) types.OperationResult {
	result := types.Failed("", err)
	if de, ok := errors.As(err); ok {
		result.Output = de.Output
	}
	return result
}
