package httpapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

type systemHealth struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsed       uint64  `json:"mem_used_bytes"`
	MemTotal      uint64  `json:"mem_total_bytes"`
	MemPercent    float64 `json:"mem_percent"`
	HostUptime    uint64  `json:"host_uptime_seconds"`
}

// systemHealth reports process and host level health for operators.
func (h *handler) systemHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := systemHealth{
		Status:        "ok",
		UptimeSeconds: time.Since(startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out.MemUsed = vm.Used
		out.MemTotal = vm.Total
		out.MemPercent = vm.UsedPercent
	} else {
		h.log.WithError(err).Debug("read virtual memory stats")
	}
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		out.CPUPercent = pcts[0]
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		out.HostUptime = uptime
	}

	writeJSON(w, http.StatusOK, out)
}
