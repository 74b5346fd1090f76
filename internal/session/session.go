// Package session owns the mutable per-server state of the panel: lifecycle
// status, the bounded console log buffer, and the set of live subscribers.
// Each server gets one Session aggregate guarded by its own mutex, so the
// status/buffer/subscriber triple mutates atomically per server id.
package session

import (
	"strings"
	"sync"
	"time"

	"mcpanel/internal/models"
)

const (
	// LogCapacity bounds the per-server console buffer. Oldest lines are
	// dropped once the cap is exceeded.
	LogCapacity = 200

	// DefaultTailLimit is used when a tail request carries no usable limit.
	DefaultTailLimit = 50
)

// Sink receives console output for one subscribed connection. A returned
// error marks the sink dead and removes it from the session.
type Sink interface {
	// SendSnapshot delivers the buffered tail at subscribe time.
	SendSnapshot(lines []string) error
	// SendLine delivers one incremental console line.
	SendLine(line string) error
}

// Session aggregates the lifecycle state, log ring buffer, and subscriber
// set for a single registered server.
type Session struct {
	def *models.ServerDefinition

	mu           sync.Mutex
	status       models.ServerStatus
	lastAction   models.ServerAction
	lastActionAt *time.Time
	logs         []string
	sinks        map[Sink]bool
}

func newSession(def *models.ServerDefinition) *Session {
	return &Session{
		def:    def,
		status: models.StatusOffline,
		sinks:  make(map[Sink]bool),
	}
}

// Definition returns the immutable registry entry backing this session.
func (s *Session) Definition() *models.ServerDefinition {
	return s.def
}

// State returns a copy of the current lifecycle state.
func (s *Session) State() models.LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.LifecycleState{
		Status:       s.status,
		LastAction:   s.lastAction,
		LastActionAt: s.lastActionAt,
	}
}

// ApplyAction records a lifecycle action: start and restart land on online,
// stop on offline. Exactly one info line is appended to the console buffer.
func (s *Session) ApplyAction(action models.ServerAction) models.LifecycleState {
	var status models.ServerStatus
	var message string
	switch action {
	case models.ActionStop:
		status = models.StatusOffline
		message = "[INFO] Server stopped"
	case models.ActionRestart:
		status = models.StatusOnline
		message = "[INFO] Server restarted"
	default:
		status = models.StatusOnline
		message = "[INFO] Server started"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.status = status
	s.lastAction = action
	s.lastActionAt = &now
	s.appendLocked(message)
	return models.LifecycleState{
		Status:       s.status,
		LastAction:   s.lastAction,
		LastActionAt: s.lastActionAt,
	}
}

// SetStatus flips the lifecycle status without touching the last action.
// Used by the liveness probe and the stats collector.
func (s *Session) SetStatus(status models.ServerStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Append pushes one line to the console buffer, trims to capacity, and
// fans the line out to every subscriber before returning. Fan-out happens
// inside the same critical section as the buffer mutation, so a subscriber
// sees each line exactly once: either in its snapshot or as an increment.
func (s *Session) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(line)
}

func (s *Session) appendLocked(line string) {
	s.logs = append(s.logs, line)
	if len(s.logs) > LogCapacity {
		s.logs = s.logs[len(s.logs)-LogCapacity:]
	}
	for sink := range s.sinks {
		if err := sink.SendLine(line); err != nil {
			delete(s.sinks, sink)
		}
	}
}

// Tail returns the most recent min(limit, len) lines in append order.
// Limits below 1 are clamped to 1.
func (s *Session) Tail(limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tailLocked(limit)
}

func (s *Session) tailLocked(limit int) []string {
	if limit < 1 {
		limit = 1
	}
	start := len(s.logs) - limit
	if start < 0 {
		start = 0
	}
	out := make([]string, len(s.logs)-start)
	copy(out, s.logs[start:])
	return out
}

// Command handles a console command submission: the trimmed command is
// echoed into the buffer followed by a synthetic execution line. Empty
// commands are silently ignored. Dispatch is log-only; the command is not
// forwarded to the game process.
func (s *Session) Command(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(trimmed)
	s.appendLocked("Executed command: " + trimmed)
	return true
}

// attach registers a sink and sends it the snapshot within the same
// critical section, so no appended line can fall between the two.
func (s *Session) attach(sink Sink, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.tailLocked(limit)
	if err := sink.SendSnapshot(snapshot); err != nil {
		return
	}
	s.sinks[sink] = true
}

func (s *Session) detach(sink Sink) {
	s.mu.Lock()
	delete(s.sinks, sink)
	s.mu.Unlock()
}

// SubscriberCount reports the number of live subscribers, for logging.
func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}
