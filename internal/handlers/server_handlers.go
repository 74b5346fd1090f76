// Package handlers exposes the panel's HTTP API: server lifecycle, console
// logs, commands, stats, and the path-scoped file browser.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mcpanel/internal/models"
	"mcpanel/internal/rcon"
	"mcpanel/internal/session"
	"mcpanel/internal/stats"
)

// ServerHandlers serves the per-server lifecycle, log, command, and stats
// endpoints.
type ServerHandlers struct {
	sessions  *session.Manager
	gateway   *rcon.Gateway
	collector *stats.Collector
}

// NewServerHandlers wires the handler set over the session manager.
func NewServerHandlers(sessions *session.Manager, gateway *rcon.Gateway, collector *stats.Collector) *ServerHandlers {
	return &ServerHandlers{sessions: sessions, gateway: gateway, collector: collector}
}

// lookup resolves the :server_id path parameter. It writes the error
// response itself and returns nil when the request cannot proceed.
func (h *ServerHandlers) lookup(c *gin.Context) *session.Session {
	if !h.sessions.Loaded() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no servers configured"})
		return nil
	}
	sess := h.sessions.Session(c.Param("server_id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return nil
	}
	return sess
}

func serverPayload(sess *session.Session) gin.H {
	def := sess.Definition()
	return gin.H{
		"id":          def.ID,
		"name":        def.Name,
		"port":        def.Port,
		"description": def.Description,
	}
}

// APIServers lists all registered servers with their current states.
func (h *ServerHandlers) APIServers(c *gin.Context) {
	if !h.sessions.Loaded() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no servers configured"})
		return
	}
	servers := make([]gin.H, 0, len(h.sessions.Definitions()))
	for _, def := range h.sessions.Definitions() {
		sess := h.sessions.Session(def.ID)
		payload := serverPayload(sess)
		payload["state"] = sess.State()
		servers = append(servers, payload)
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

// APIServerStatus returns the server's lifecycle state after a liveness
// probe. The probe flips status by reachability but never the last action;
// servers without remote-console credentials are left as-is.
func (h *ServerHandlers) APIServerStatus(c *gin.Context) {
	sess := h.lookup(c)
	if sess == nil {
		return
	}
	def := sess.Definition()
	if def.HasRcon() {
		if h.gateway.Probe(def) {
			sess.SetStatus(models.StatusOnline)
		} else {
			sess.SetStatus(models.StatusOffline)
		}
	}
	c.JSON(http.StatusOK, gin.H{"server": serverPayload(sess), "state": sess.State()})
}

func (h *ServerHandlers) applyAction(c *gin.Context, action models.ServerAction) {
	sess := h.lookup(c)
	if sess == nil {
		return
	}
	state := sess.ApplyAction(action)
	c.JSON(http.StatusOK, gin.H{"server": serverPayload(sess), "state": state})
}

// APIServerStart marks the server online and logs the action.
func (h *ServerHandlers) APIServerStart(c *gin.Context) {
	h.applyAction(c, models.ActionStart)
}

// APIServerStop marks the server offline and logs the action.
func (h *ServerHandlers) APIServerStop(c *gin.Context) {
	h.applyAction(c, models.ActionStop)
}

// APIServerRestart marks the server online and logs the action.
func (h *ServerHandlers) APIServerRestart(c *gin.Context) {
	h.applyAction(c, models.ActionRestart)
}

// APIServerLogs returns the tail of the console buffer. The limit query
// defaults to 50; non-numeric input falls back to the default and values
// below 1 clamp to 1.
func (h *ServerHandlers) APIServerLogs(c *gin.Context) {
	sess := h.lookup(c)
	if sess == nil {
		return
	}
	limit := session.ParseTailLimit(c.Query("limit"))
	c.JSON(http.StatusOK, gin.H{"logs": sess.Tail(limit)})
}

type commandRequest struct {
	Command string `json:"command"`
}

// APIServerCommand appends the command echo and its synthetic execution
// line to the console buffer. Empty commands are accepted and ignored.
func (h *ServerHandlers) APIServerCommand(c *gin.Context) {
	sess := h.lookup(c)
	if sess == nil {
		return
	}
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess.Command(req.Command)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// APIServerStats returns the combined stats snapshot, or the failure code
// when the remote console is missing or unreachable.
func (h *ServerHandlers) APIServerStats(c *gin.Context) {
	sess := h.lookup(c)
	if sess == nil {
		return
	}
	snapshot, err := h.collector.Collect(c.Request.Context(), sess)
	if err != nil {
		code := "StatsUnavailable"
		if errors.Is(err, stats.ErrRconNotConfigured) {
			code = "RconNotConfigured"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": code})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"server":         serverPayload(sess),
		"state":          sess.State(),
		"players":        snapshot.Players,
		"tps":            snapshot.TPS,
		"host":           snapshot.Host,
		"process":        snapshot.Process,
		"worldSizeBytes": snapshot.WorldSizeBytes,
	})
}

// trimmedParam returns a query parameter with surrounding whitespace removed.
func trimmedParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}
