package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"mcpanel/internal/models"
	"mcpanel/internal/rcon"
	"mcpanel/internal/session"
)

type fakeConn struct {
	responses map[string]string
	errs      map[string]error
	closed    bool
}

func (f *fakeConn) Execute(command string) (string, error) {
	if err, ok := f.errs[command]; ok {
		return "", err
	}
	return f.responses[command], nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	conn    *fakeConn
	dialErr error
}

func (f *fakeDialer) Dial(address, password string, timeout time.Duration) (rcon.Conn, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f.conn, nil
}

func testSession(t *testing.T, root string, withRcon bool) *session.Session {
	t.Helper()
	def := &models.ServerDefinition{ID: "alpha", Name: "Alpha", Path: root, Port: 25565}
	if withRcon {
		def.Rcon = &models.RconConfig{Host: "127.0.0.1", Port: 25575, Password: "secret"}
	}
	mgr := session.NewManager([]*models.ServerDefinition{def}, nil)
	return mgr.Session("alpha")
}

func TestCollectWithoutRconConfigured(t *testing.T) {
	sess := testSession(t, t.TempDir(), false)
	sess.ApplyAction(models.ActionStart)

	collector := NewCollector(rcon.NewGatewayWithDialer(&fakeDialer{}, nil), nil)
	if _, err := collector.Collect(context.Background(), sess); !errors.Is(err, ErrRconNotConfigured) {
		t.Fatalf("expected ErrRconNotConfigured, got %v", err)
	}
	if sess.State().Status != models.StatusOnline {
		t.Fatalf("status must be unchanged when rcon is not configured")
	}
}

func TestCollectConnectFailureForcesOffline(t *testing.T) {
	sess := testSession(t, t.TempDir(), true)
	sess.ApplyAction(models.ActionStart)

	dialer := &fakeDialer{dialErr: errors.New("connection refused")}
	collector := NewCollector(rcon.NewGatewayWithDialer(dialer, nil), nil)

	if _, err := collector.Collect(context.Background(), sess); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if sess.State().Status != models.StatusOffline {
		t.Fatalf("connect failure must force status offline")
	}
}

func TestCollectSoftFailingTPS(t *testing.T) {
	sess := testSession(t, t.TempDir(), true)

	conn := &fakeConn{
		responses: map[string]string{
			"list": "There are 2 of a max of 10 players online: alice, bob",
		},
		errs: map[string]error{"tps": errors.New("Unknown command")},
	}
	collector := NewCollector(rcon.NewGatewayWithDialer(&fakeDialer{conn: conn}, nil), nil)

	snapshot, err := collector.Collect(context.Background(), sess)
	if err != nil {
		t.Fatalf("tps failure must not abort collection, got %v", err)
	}
	if snapshot.TPS != nil {
		t.Fatalf("expected nil tps, got %v", *snapshot.TPS)
	}
	if snapshot.Players.Online != 2 || snapshot.Players.Max != 10 {
		t.Fatalf("expected player data populated, got %+v", snapshot.Players)
	}
	if snapshot.Host.Memory.TotalBytes == 0 {
		t.Fatalf("expected host memory sample to be populated")
	}
	if !conn.closed {
		t.Fatalf("remote-console session must be closed after collection")
	}
	if sess.State().Status != models.StatusOnline {
		t.Fatalf("successful collection must force status online")
	}
}

func TestCollectProcessFieldNullWhenNotFound(t *testing.T) {
	// The temp dir can't appear in any process command line.
	sess := testSession(t, t.TempDir(), true)

	conn := &fakeConn{responses: map[string]string{
		"list": "There are 0 of a max of 10 players online:",
		"tps":  "TPS from last 1m, 5m, 15m: 20.0, 20.0, 20.0",
	}}
	collector := NewCollector(rcon.NewGatewayWithDialer(&fakeDialer{conn: conn}, nil), nil)

	snapshot, err := collector.Collect(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.Process != nil {
		t.Fatalf("expected nil process sample, got %+v", snapshot.Process)
	}
	if snapshot.TPS == nil || *snapshot.TPS != 20.0 {
		t.Fatalf("expected tps 20.0, got %v", snapshot.TPS)
	}
}

func TestSwapSampleFirstObservationIsZero(t *testing.T) {
	collector := NewCollector(nil, nil)

	if pct := collector.swapSample("alpha", cpuSample{pid: 42, procTicks: 10, hostTicks: 100}); pct != 0 {
		t.Fatalf("first sample must report 0%%, got %v", pct)
	}
	if pct := collector.swapSample("alpha", cpuSample{pid: 42, procTicks: 15, hostTicks: 200}); pct != 5 {
		t.Fatalf("expected 5%% from tick delta, got %v", pct)
	}
	// A new pid invalidates the stored sample.
	if pct := collector.swapSample("alpha", cpuSample{pid: 43, procTicks: 1, hostTicks: 300}); pct != 0 {
		t.Fatalf("pid change must reset the delta, got %v", pct)
	}
}
