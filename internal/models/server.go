// Package models holds the wire and domain types shared by the registry,
// session, stats, and handler layers.
package models

import "time"

// ServerStatus is the lifecycle status of a managed game server.
type ServerStatus string

const (
	StatusOffline    ServerStatus = "offline"
	StatusOnline     ServerStatus = "online"
	StatusRestarting ServerStatus = "restarting"
)

// ServerAction is a lifecycle action applied through the panel.
type ServerAction string

const (
	ActionStart   ServerAction = "start"
	ActionStop    ServerAction = "stop"
	ActionRestart ServerAction = "restart"
)

// RconConfig holds the remote-console endpoint for a managed server.
// A server without a password is treated as having no remote console.
type RconConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port" validate:"omitempty,gte=1,lte=65535"`
	Password string `json:"password"`
}

// ServerDefinition is one immutable registry entry. Definitions are loaded
// once at startup and never mutated afterwards.
type ServerDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name" validate:"required"`
	Path        string      `json:"path" validate:"required"`
	Port        int         `json:"port" validate:"required,gte=1,lte=65535"`
	Description string      `json:"description,omitempty"`
	Rcon        *RconConfig `json:"rcon,omitempty"`
}

// HasRcon reports whether the definition carries usable remote-console credentials.
func (d *ServerDefinition) HasRcon() bool {
	return d != nil && d.Rcon != nil && d.Rcon.Password != ""
}

// RconAddress returns the host:port endpoint for the remote console.
// Host defaults to localhost, port to the conventional Minecraft RCON port.
func (d *ServerDefinition) RconAddress() (string, int) {
	host := "127.0.0.1"
	port := 25575
	if d != nil && d.Rcon != nil {
		if d.Rcon.Host != "" {
			host = d.Rcon.Host
		}
		if d.Rcon.Port > 0 {
			port = d.Rcon.Port
		}
	}
	return host, port
}

// LifecycleState is the mutable per-server status tracked by the panel.
// A zero lastAction means no action has been taken since process start.
type LifecycleState struct {
	Status       ServerStatus `json:"status"`
	LastAction   ServerAction `json:"lastAction,omitempty"`
	LastActionAt *time.Time   `json:"lastActionAt,omitempty"`
}
