package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mcpanel/internal/models"
	"mcpanel/internal/rcon"
	"mcpanel/internal/session"
	"mcpanel/internal/stats"
)

type fakeConn struct {
	responses map[string]string
}

func (f *fakeConn) Execute(command string) (string, error) {
	if out, ok := f.responses[command]; ok {
		return out, nil
	}
	return "", errors.New("unknown command")
}

func (f *fakeConn) Close() error { return nil }

type fakeDialer struct {
	conn    rcon.Conn
	dialErr error
}

func (f *fakeDialer) Dial(address, password string, timeout time.Duration) (rcon.Conn, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f.conn, nil
}

func setupRouter(t *testing.T, defs []*models.ServerDefinition, dialer rcon.Dialer) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(defs, nil)
	gateway := rcon.NewGatewayWithDialer(dialer, nil)
	collector := stats.NewCollector(gateway, nil)
	h := NewServerHandlers(sessions, gateway, collector)

	r := gin.New()
	r.GET("/api/servers", h.APIServers)
	r.GET("/api/servers/:server_id/status", h.APIServerStatus)
	r.POST("/api/servers/:server_id/start", h.APIServerStart)
	r.POST("/api/servers/:server_id/stop", h.APIServerStop)
	r.POST("/api/servers/:server_id/restart", h.APIServerRestart)
	r.GET("/api/servers/:server_id/logs", h.APIServerLogs)
	r.POST("/api/servers/:server_id/command", h.APIServerCommand)
	r.GET("/api/servers/:server_id/stats", h.APIServerStats)
	return r, sessions
}

func testDefs(root string, withRcon bool) []*models.ServerDefinition {
	def := &models.ServerDefinition{ID: "survival", Name: "Survival", Path: root, Port: 25565}
	if withRcon {
		def.Rcon = &models.RconConfig{Password: "secret"}
	}
	return []*models.ServerDefinition{def}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUnknownServerReturns404(t *testing.T) {
	r, _ := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	w := doRequest(r, http.MethodGet, "/api/servers/nope/status", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestEmptyRegistryReturns500(t *testing.T) {
	r, _ := setupRouter(t, nil, &fakeDialer{})
	w := doRequest(r, http.MethodGet, "/api/servers/survival/status", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["error"] != "no servers configured" {
		t.Fatalf("unexpected error message %q", resp["error"])
	}
}

func TestStartActionReturnsState(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})

	w := doRequest(r, http.MethodPost, "/api/servers/survival/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		State models.LifecycleState `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.State.Status != models.StatusOnline || resp.State.LastAction != models.ActionStart {
		t.Fatalf("unexpected state %+v", resp.State)
	}

	logs := sessions.Session("survival").Tail(10)
	if len(logs) != 1 || logs[0] != "[INFO] Server started" {
		t.Fatalf("expected one start log line, got %v", logs)
	}
}

func TestStopAfterStart(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	doRequest(r, http.MethodPost, "/api/servers/survival/start", "")
	w := doRequest(r, http.MethodPost, "/api/servers/survival/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	state := sessions.Session("survival").State()
	if state.Status != models.StatusOffline || state.LastAction != models.ActionStop {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestLogsLimitFallbacks(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	sess := sessions.Session("survival")
	for i := 0; i < 60; i++ {
		sess.Append(fmt.Sprintf("line %d", i))
	}

	cases := map[string]int{
		"":           50,
		"?limit=abc": 50,
		"?limit=0":   1,
		"?limit=-5":  1,
		"?limit=10":  10,
		"?limit=999": 60,
	}
	for query, want := range cases {
		w := doRequest(r, http.MethodGet, "/api/servers/survival/logs"+query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", query, w.Code)
		}
		var resp struct {
			Logs []string `json:"logs"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: unmarshal: %v", query, err)
		}
		if len(resp.Logs) != want {
			t.Fatalf("%s: expected %d lines, got %d", query, want, len(resp.Logs))
		}
	}
}

func TestCommandAppendsTwoLines(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})

	w := doRequest(r, http.MethodPost, "/api/servers/survival/command", `{"command": "say hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	logs := sessions.Session("survival").Tail(10)
	if len(logs) != 2 || logs[0] != "say hi" || logs[1] != "Executed command: say hi" {
		t.Fatalf("unexpected command logs %v", logs)
	}
}

func TestCommandEmptyIsIgnored(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	w := doRequest(r, http.MethodPost, "/api/servers/survival/command", `{"command": "  "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if logs := sessions.Session("survival").Tail(10); len(logs) != 0 {
		t.Fatalf("expected no logs for blank command, got %v", logs)
	}
}

func TestCommandBadBodyReturns400(t *testing.T) {
	r, _ := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	w := doRequest(r, http.MethodPost, "/api/servers/survival/command", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStatsWithoutRcon(t *testing.T) {
	r, _ := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	w := doRequest(r, http.MethodGet, "/api/servers/survival/stats", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["error"] != "RconNotConfigured" {
		t.Fatalf("expected RconNotConfigured, got %v", resp["error"])
	}
}

func TestStatsUnreachableRcon(t *testing.T) {
	dialer := &fakeDialer{dialErr: errors.New("connection refused")}
	r, sessions := setupRouter(t, testDefs(t.TempDir(), true), dialer)
	doRequest(r, http.MethodPost, "/api/servers/survival/start", "")

	w := doRequest(r, http.MethodGet, "/api/servers/survival/stats", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "StatsUnavailable") {
		t.Fatalf("expected StatsUnavailable, got %s", w.Body.String())
	}
	if sessions.Session("survival").State().Status != models.StatusOffline {
		t.Fatalf("expected status forced offline")
	}
}

func TestStatsSuccess(t *testing.T) {
	conn := &fakeConn{responses: map[string]string{
		"list": "There are 1 of a max of 8 players online: alice",
		"tps":  "TPS from last 1m, 5m, 15m: 20.0, 20.0, 19.5",
	}}
	r, sessions := setupRouter(t, testDefs(t.TempDir(), true), &fakeDialer{conn: conn})

	w := doRequest(r, http.MethodGet, "/api/servers/survival/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Players models.PlayerStats `json:"players"`
		TPS     *float64           `json:"tps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Players.Online != 1 || len(resp.Players.Names) != 1 {
		t.Fatalf("unexpected players %+v", resp.Players)
	}
	if resp.TPS == nil || *resp.TPS != 19.5 {
		t.Fatalf("unexpected tps %v", resp.TPS)
	}
	if sessions.Session("survival").State().Status != models.StatusOnline {
		t.Fatalf("expected status forced online after success")
	}
}

func TestStatusProbeFlipsStatus(t *testing.T) {
	dialer := &fakeDialer{dialErr: errors.New("connection refused")}
	r, sessions := setupRouter(t, testDefs(t.TempDir(), true), dialer)
	doRequest(r, http.MethodPost, "/api/servers/survival/start", "")

	w := doRequest(r, http.MethodGet, "/api/servers/survival/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	state := sessions.Session("survival").State()
	if state.Status != models.StatusOffline {
		t.Fatalf("expected probe to flip status offline, got %q", state.Status)
	}
	if state.LastAction != models.ActionStart {
		t.Fatalf("probe must not touch lastAction, got %q", state.LastAction)
	}
}

func TestStatusWithoutRconLeavesStatus(t *testing.T) {
	r, sessions := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{dialErr: errors.New("refused")})
	doRequest(r, http.MethodPost, "/api/servers/survival/start", "")

	doRequest(r, http.MethodGet, "/api/servers/survival/status", "")
	if sessions.Session("survival").State().Status != models.StatusOnline {
		t.Fatalf("probe must not run without rcon credentials")
	}
}

func TestServersListing(t *testing.T) {
	r, _ := setupRouter(t, testDefs(t.TempDir(), false), &fakeDialer{})
	w := doRequest(r, http.MethodGet, "/api/servers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Servers []map[string]interface{} `json:"servers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Servers) != 1 || resp.Servers[0]["id"] != "survival" {
		t.Fatalf("unexpected listing %v", resp.Servers)
	}
}
