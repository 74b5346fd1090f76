package session

import (
	"strconv"
	"strings"
	"sync"

	"mcpanel/internal/models"
	"mcpanel/internal/utils"
)

// Manager holds the loaded registry and the lazily-created session for each
// server id. It also tracks which session every live sink is subscribed to,
// so re-subscribing a connection moves it between servers. Lock order is
// always manager first, then session.
type Manager struct {
	mu       sync.Mutex
	defs     []*models.ServerDefinition
	byID     map[string]*models.ServerDefinition
	sessions map[string]*Session
	current  map[Sink]*Session
	logger   *utils.Logger
}

// NewManager builds a manager over the loaded registry. A nil or empty
// definition list leaves the registry unloaded; every lookup then reports
// no servers configured.
func NewManager(defs []*models.ServerDefinition, logger *utils.Logger) *Manager {
	byID := make(map[string]*models.ServerDefinition, len(defs))
	for _, def := range defs {
		if def != nil {
			byID[def.ID] = def
		}
	}
	return &Manager{
		defs:     defs,
		byID:     byID,
		sessions: make(map[string]*Session),
		current:  make(map[Sink]*Session),
		logger:   logger,
	}
}

// Loaded reports whether the registry holds at least one server.
func (m *Manager) Loaded() bool {
	return m != nil && len(m.byID) > 0
}

// Definitions returns the registry entries in load order.
func (m *Manager) Definitions() []*models.ServerDefinition {
	if m == nil {
		return nil
	}
	return m.defs
}

// Lookup returns the definition for an id, or nil when unknown.
func (m *Manager) Lookup(id string) *models.ServerDefinition {
	if m == nil {
		return nil
	}
	return m.byID[id]
}

// Session returns the session for a registered id, creating the default
// offline session on first access. Unknown ids yield nil; rejecting them
// is the caller's job.
func (m *Manager) Session(id string) *Session {
	if m == nil {
		return nil
	}
	def := m.byID[id]
	if def == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked(def)
}

func (m *Manager) sessionLocked(def *models.ServerDefinition) *Session {
	if sess, ok := m.sessions[def.ID]; ok {
		return sess
	}
	sess := newSession(def)
	m.sessions[def.ID] = sess
	return sess
}

// Subscribe attaches a sink to a server's console stream, sending the
// buffered tail as a snapshot. Re-subscription is idempotent: the sink is
// moved out of whatever session it was attached to before. Returns false
// for unknown server ids.
func (m *Manager) Subscribe(sink Sink, id string, limit int) bool {
	if m == nil || sink == nil {
		return false
	}
	def := m.byID[id]
	if def == nil {
		return false
	}

	m.mu.Lock()
	sess := m.sessionLocked(def)
	prev := m.current[sink]
	if prev == sess {
		m.mu.Unlock()
		sess.detach(sink)
		sess.attach(sink, limit)
		return true
	}
	m.current[sink] = sess
	m.mu.Unlock()

	if prev != nil {
		prev.detach(sink)
	}
	sess.attach(sink, limit)
	if m.logger != nil {
		m.logger.Writef("Console subscriber attached to %s (%d active)", id, sess.SubscriberCount())
	}
	return true
}

// Unsubscribe detaches a sink from whichever session it belongs to.
// Safe to call multiple times and for never-subscribed sinks.
func (m *Manager) Unsubscribe(sink Sink) {
	if m == nil || sink == nil {
		return
	}
	m.mu.Lock()
	sess := m.current[sink]
	delete(m.current, sink)
	m.mu.Unlock()
	if sess != nil {
		sess.detach(sink)
	}
}

// Command routes a live-channel command to the session the sink is
// currently subscribed to. Sinks with no subscription are ignored.
func (m *Manager) Command(sink Sink, text string) {
	if m == nil || sink == nil {
		return
	}
	m.mu.Lock()
	sess := m.current[sink]
	m.mu.Unlock()
	if sess == nil {
		return
	}
	if sess.Command(text) && m.logger != nil {
		m.logger.Writef("Console command on %s: %s", sess.def.ID, strings.TrimSpace(text))
	}
}

// ParseTailLimit turns a raw limit query value into a usable tail limit:
// empty or non-numeric input falls back to the default, anything below 1
// clamps to 1.
func ParseTailLimit(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultTailLimit
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return DefaultTailLimit
	}
	if n < 1 {
		return 1
	}
	return n
}
