// Package rcon wraps short-lived remote-console sessions against a managed
// server. Every acquisition follows connect, authenticate, execute, close;
// the underlying connection is released on all exit paths.
package rcon

import (
	"fmt"
	"time"

	"github.com/gorcon/rcon"

	"mcpanel/internal/models"
	"mcpanel/internal/utils"
)

const (
	// ProbeTimeout bounds the liveness probe. Kept short because status
	// polling must not stall request handling.
	ProbeTimeout = 1500 * time.Millisecond

	// StatsTimeout bounds stats collection and general command sessions.
	StatsTimeout = 3 * time.Second
)

// Conn is one authenticated remote-console session.
type Conn interface {
	Execute(command string) (string, error)
	Close() error
}

// Dialer opens remote-console sessions. Swapped for a fake in tests.
type Dialer interface {
	Dial(address, password string, timeout time.Duration) (Conn, error)
}

type gorconDialer struct{}

func (gorconDialer) Dial(address, password string, timeout time.Duration) (Conn, error) {
	return rcon.Dial(address, password, rcon.SetDialTimeout(timeout), rcon.SetDeadline(timeout))
}

// Gateway opens and tears down remote-console sessions for registry entries.
type Gateway struct {
	dialer Dialer
	logger *utils.Logger
}

// NewGateway returns a gateway using the real RCON dialer.
func NewGateway(logger *utils.Logger) *Gateway {
	return &Gateway{dialer: gorconDialer{}, logger: logger}
}

// NewGatewayWithDialer returns a gateway with a custom dialer, for tests.
func NewGatewayWithDialer(dialer Dialer, logger *utils.Logger) *Gateway {
	return &Gateway{dialer: dialer, logger: logger}
}

// WithSession opens an authenticated session to the server's remote console,
// runs fn, and always closes the session, including when authentication or
// fn fails. The timeout covers dialing and each command round trip.
func (g *Gateway) WithSession(def *models.ServerDefinition, timeout time.Duration, fn func(Conn) error) error {
	if !def.HasRcon() {
		return fmt.Errorf("server %s has no remote console configured", def.ID)
	}
	host, port := def.RconAddress()
	conn, err := g.dialer.Dial(fmt.Sprintf("%s:%d", host, port), def.Rcon.Password, timeout)
	if err != nil {
		if g.logger != nil {
			g.logger.Writef("RCON connect to %s failed: %v", def.ID, err)
		}
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// Probe checks reachability of the server's remote console with the short
// probe timeout. Servers without credentials report unreachable.
func (g *Gateway) Probe(def *models.ServerDefinition) bool {
	err := g.WithSession(def, ProbeTimeout, func(Conn) error { return nil })
	return err == nil
}
