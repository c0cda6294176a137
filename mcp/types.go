package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ServerStatus describes the lifecycle state of an MCP server as shown
// in the dashboard.
type ServerStatus string

const (
	StatusHealthy  ServerStatus = "healthy"
	StatusDegraded ServerStatus = "degraded"
	StatusCrashed  ServerStatus = "crashed"
	StatusStarting ServerStatus = "starting"
	StatusUpdating ServerStatus = "updating"
	StatusPending  ServerStatus = "pending"
	StatusOrphaned ServerStatus = "orphaned"
	StatusError    ServerStatus = "error"
	StatusStopped  ServerStatus = "stopped"
)

// ParseServerStatus maps a raw status string onto a known ServerStatus.
// Unknown values degrade to StatusError so the dashboard always has
// something to render.
func ParseServerStatus(s string) ServerStatus {
	switch ServerStatus(s) {
	case StatusHealthy, StatusDegraded, StatusCrashed, StatusStarting,
		StatusUpdating, StatusPending, StatusOrphaned, StatusError, StatusStopped:
		return ServerStatus(s)
	default:
		return StatusError
	}
}

// Symbol returns the dashboard indicator character for a status.
func (s ServerStatus) Symbol() string {
	switch s {
	case StatusHealthy:
		return "●"
	case StatusDegraded, StatusUpdating:
		return "◐"
	case StatusStarting, StatusPending:
		return "◌"
	case StatusStopped:
		return "○"
	default:
		return "✗"
	}
}

// IsRunning reports whether a server in this state holds a live connection.
func (s ServerStatus) IsRunning() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusStarting, StatusUpdating:
		return true
	default:
		return false
	}
}

// ConflictStatus describes version agreement between an installed
// server and its registry entry.
type ConflictStatus string

const (
	ConflictNone            ConflictStatus = "none"
	ConflictDetected        ConflictStatus = "conflict"
	ConflictUpdateAvailable ConflictStatus = "update_available"
)

// Label returns the dashboard annotation for a conflict state, empty
// when there is nothing to show.
func (c ConflictStatus) Label() string {
	switch c {
	case ConflictDetected:
		return "version conflict"
	case ConflictUpdateAvailable:
		return "update available"
	default:
		return ""
	}
}

// ServerProcess tracks one live MCP server connection.
type ServerProcess struct {
	ID        string
	Name      string
	Process   *exec.Cmd // nil for remote servers
	Client    *client.Client
	Tools     []mcptypes.Tool
	Status    ServerStatus
	IsRemote  bool
	ServerURL string
}

// ServerConfig carries everything needed to start one server.
type ServerConfig struct {
	ID         string
	Transport  string // "stdio", "sse", "streamable-http"
	EntryPoint string
	Args       []string
	Env        map[string]string
	Config     map[string]string
	ServerURL  string
	AuthType   string
}
