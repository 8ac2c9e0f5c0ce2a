// Package observability reports runtime telemetry for the hub process.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"agent-hub/hub"
)

// Report aggregates hub counters with Go runtime and OS process
// metrics, for periodic logging and the /stats endpoint.
type Report struct {
	Hub          hub.Stats `json:"hub"`
	AllocMemMb   uint64    `json:"alloc_mem_mb"`
	NumGC        uint32    `json:"num_gc"`
	Goroutines   int       `json:"goroutines"`
	ProcessRSSMb uint64    `json:"process_rss_mb"`
	CPUPercent   float64   `json:"cpu_percent"`
}

type Reporter struct {
	hub      *hub.Hub
	proc     *process.Process
	interval time.Duration
	log      *slog.Logger
}

func NewReporter(h *hub.Hub, interval time.Duration, log *slog.Logger) (*Reporter, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Reporter{hub: h, proc: proc, interval: interval, log: log}, nil
}

// Collect builds one report. OS-level metrics are best effort: when the
// process probe fails they stay zero rather than failing the report.
func (r *Reporter) Collect() Report {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	report := Report{
		Hub:        r.hub.Stats(),
		AllocMemMb: memStats.Alloc / 1024 / 1024,
		NumGC:      memStats.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if memInfo, err := r.proc.MemoryInfo(); err == nil {
		report.ProcessRSSMb = memInfo.RSS / 1024 / 1024
	}
	if cpu, err := r.proc.CPUPercent(); err == nil {
		report.CPUPercent = cpu
	}
	return report
}

// Run logs one report per interval until the context ends.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := r.Collect()
			r.log.Info("hub telemetry",
				"workspaces", report.Hub.Workspaces,
				"agents", report.Hub.Agents,
				"channels", report.Hub.Channels,
				"messages", report.Hub.Messages,
				"alloc_mb", report.AllocMemMb,
				"rss_mb", report.ProcessRSSMb,
				"goroutines", report.Goroutines,
			)
		}
	}
}
