package heartbeat

import (
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/orion/errors"
)

// SystemMetrics is a host resource snapshot shown alongside heartbeat status
type SystemMetrics struct {
	MemoryUsedGB  float64 `json:"memory_used_gb"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	MemoryPercent float64 `json:"memory_percent"`
	HostUptimeSec uint64  `json:"host_uptime_seconds"`
}

const bytesPerGB = 1024 * 1024 * 1024

// ReadSystemMetrics samples host memory and uptime
func ReadSystemMetrics() (SystemMetrics, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return SystemMetrics{}, errors.Wrap(err, "failed to get memory stats")
	}

	uptime, err := host.Uptime()
	if err != nil {
		return SystemMetrics{}, errors.Wrap(err, "failed to get host uptime")
	}

	return SystemMetrics{
		MemoryUsedGB:  float64(v.Total-v.Available) / bytesPerGB,
		MemoryTotalGB: float64(v.Total) / bytesPerGB,
		MemoryPercent: v.UsedPercent,
		HostUptimeSec: uptime,
	}, nil
}
