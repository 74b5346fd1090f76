package models

// PlayerStats is the parsed result of the remote-console "list" query.
type PlayerStats struct {
	Online int      `json:"online"`
	Max    int      `json:"max"`
	Names  []string `json:"names"`
}

// MemoryStats captures host memory counters at sample time.
type MemoryStats struct {
	UsedBytes  uint64  `json:"usedBytes"`
	TotalBytes uint64  `json:"totalBytes"`
	Percent    float64 `json:"percent"`
}

// HostStats captures host-level resource usage.
type HostStats struct {
	CPUPercent float64     `json:"cpuPercent"`
	Memory     MemoryStats `json:"memory"`
}

// ProcessStats captures the target game process sample. The field is null
// in the stats payload when no matching process is found.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpuPercent"`
	RSSBytes   uint64  `json:"rssBytes"`
}

// ServerStats is the combined on-demand snapshot returned by the stats endpoint.
// TPS is a pointer because the query soft-fails to null, never to an error.
type ServerStats struct {
	Players        PlayerStats   `json:"players"`
	TPS            *float64      `json:"tps"`
	Host           HostStats     `json:"host"`
	Process        *ProcessStats `json:"process"`
	WorldSizeBytes int64         `json:"worldSizeBytes"`
}
