// Package stats builds the on-demand per-server resource snapshot: player
// and tick data over the remote console, host counters, the game process
// sample, and world-directory disk usage. Only the remote-console connection
// is fatal to a collection; every other sub-step soft-fails into a default
// value, because the remaining signals stay meaningful on their own.
package stats

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"mcpanel/internal/models"
	"mcpanel/internal/rcon"
	"mcpanel/internal/session"
	"mcpanel/internal/utils"
)

var (
	// ErrRconNotConfigured reports a stats request against a server with no
	// remote-console credentials. Lifecycle status is left untouched.
	ErrRconNotConfigured = errors.New("RconNotConfigured")

	// ErrUnavailable reports a failed remote-console connection. The server
	// is forced offline as a side effect.
	ErrUnavailable = errors.New("StatsUnavailable")
)

// Collector produces combined stats snapshots. It keeps one CPU tick sample
// per server so consecutive requests can compute a usage delta.
type Collector struct {
	gateway *rcon.Gateway
	logger  *utils.Logger

	mu      sync.Mutex
	samples map[string]cpuSample
}

// NewCollector returns a collector using the given remote-console gateway.
func NewCollector(gateway *rcon.Gateway, logger *utils.Logger) *Collector {
	return &Collector{
		gateway: gateway,
		logger:  logger,
		samples: make(map[string]cpuSample),
	}
}

// Collect gathers the full snapshot for one server. The remote console is
// queried first inside a single short-lived session; connect failure aborts
// the call and flips the server offline. Full success flips it online.
func (c *Collector) Collect(ctx context.Context, sess *session.Session) (*models.ServerStats, error) {
	def := sess.Definition()
	if !def.HasRcon() {
		return nil, ErrRconNotConfigured
	}

	snapshot := &models.ServerStats{Players: models.PlayerStats{Names: []string{}}}

	err := c.gateway.WithSession(def, rcon.StatsTimeout, func(conn rcon.Conn) error {
		if out, qerr := conn.Execute("list"); qerr == nil {
			snapshot.Players = ParsePlayerList(out)
		}
		if out, qerr := conn.Execute("tps"); qerr == nil {
			snapshot.TPS = ParseTPS(out)
		}
		return nil
	})
	if err != nil {
		sess.SetStatus(models.StatusOffline)
		return nil, ErrUnavailable
	}

	snapshot.Host = sampleHost(ctx)
	snapshot.Process = c.sampleProcess(ctx, def.ID, def.Path)
	snapshot.WorldSizeBytes = WorldSize(def.Path)

	sess.SetStatus(models.StatusOnline)
	return snapshot, nil
}

// sampleHost reads host CPU and memory counters. CPU percent approximates
// load average 1m over the core count, capped at 100.
func sampleHost(ctx context.Context) models.HostStats {
	var host models.HostStats

	cores := runtime.NumCPU()
	if cores < 1 {
		cores = 1
	}
	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		host.CPUPercent = math.Min(100, math.Round(avg.Load1/float64(cores)*100))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		host.Memory = models.MemoryStats{
			UsedBytes:  vm.Used,
			TotalBytes: vm.Total,
			Percent:    vm.UsedPercent,
		}
	}
	return host
}
