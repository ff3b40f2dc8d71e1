package server

import (
	"deckhand/internal/errors"
	"deckhand/internal/types"
)

// ApiResponse is the body of every action endpoint
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Output  string `json:"output,omitempty"`

	Code      errors.ErrorCode `json:"code,omitempty"`
	Container string           `json:"container,omitempty"`
	Completed []string         `json:"completed,omitempty"`
	Data      interface{}      `json:"data,omitempty"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

// LoginResponse carries the session token for non-browser clients; browsers
// use the cookie set alongside it
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// HealthResponse is the liveness body
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// ContainersResponse lists container records
type ContainersResponse struct {
	Containers []types.ContainerRecord `json:"containers"`
	Total      int                     `json:"total"`
}

// CommitsResponse lists commits
type CommitsResponse struct {
	Commits []types.CommitInfo `json:"commits"`
	Total   int                `json:"total"`
}
