// Package system provides host health reporting.
package system

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health is the payload served by the health endpoint.
type Health struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	StartedAt time.Time `json:"started_at"`
	Host      HostInfo  `json:"host"`
}

// HostInfo is a snapshot of the machine the process runs on.
type HostInfo struct {
	Hostname    string  `json:"hostname"`
	Platform    string  `json:"platform"`
	MemoryUsed  float64 `json:"memory_used_percent"`
	Load1       float64 `json:"load_1m"`
	UptimeHours float64 `json:"host_uptime_hours"`
}

// Monitor reports process and host health.
type Monitor struct {
	version   string
	startedAt time.Time
}

// NewMonitor creates a Monitor stamped with the build version.
func NewMonitor(version string) *Monitor {
	return &Monitor{
		version:   version,
		startedAt: time.Now().UTC(),
	}
}

// Health collects the current health snapshot. Host metrics are
// best-effort; a probe failure leaves its field zeroed.
func (m *Monitor) Health(ctx context.Context) Health {
	h := Health{
		Status:    "ok",
		Version:   m.version,
		Uptime:    time.Since(m.startedAt).Round(time.Second).String(),
		StartedAt: m.startedAt,
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		h.Host.Hostname = info.Hostname
		h.Host.Platform = info.Platform
		h.Host.UptimeHours = float64(info.Uptime) / 3600
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.Host.MemoryUsed = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		h.Host.Load1 = avg.Load1
	}
	return h
}
