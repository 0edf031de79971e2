// Package profiler reports frame timing and memory statistics at a fixed
// interval so stalls from imports or GC churn show up in the logs.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/silentbridge/signavatar/internal/logger"
)

// Profiler tracks frame rate and memory statistics for the render loop.
// Stats go to the debug log at a configurable interval.
type Profiler struct {
	frameCount     int
	worstFrame     time.Duration
	lastFrame      time.Time
	lastReport     time.Time
	reportInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler reporting once per interval.
//
// Parameters:
//   - interval: how often to log stats (1 second if zero or negative)
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastReport:     time.Now(),
		reportInterval: interval,
	}
}

// Tick should be called once per frame. Logs frame rate, worst frame time,
// heap usage, and allocation rate when the report interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		if d := now.Sub(p.lastFrame); d > p.worstFrame {
			p.worstFrame = d
		}
	}
	p.lastFrame = now
	p.frameCount++

	elapsed := now.Sub(p.lastReport)
	if elapsed < p.reportInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()
	p.lastTotalAlloc = p.memStats.TotalAlloc

	logger.Debug("frame stats",
		zap.Float64("fps", fps),
		zap.Duration("worst_frame", p.worstFrame),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_mb_per_sec", allocRateMB),
		zap.Uint32("gc_count", p.memStats.NumGC),
	)

	p.frameCount = 0
	p.worstFrame = 0
	p.lastReport = now
	return true
}
