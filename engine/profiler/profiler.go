package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"go.uber.org/zap"
)

// Profiler tracks render throughput and memory statistics and logs them at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler that reports once per interval.
//
// Parameters:
//   - interval: time between reports; values <= 0 default to one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick should be called once per rendered frame.
// When the interval has elapsed it logs frames per second, the accumulated pass count, heap usage, allocation
// rate, and GC pauses at info level.
//
// Parameters:
//   - passCount: the accumulator's current pass count
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(passCount int) bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocRate := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a ring of the last 256 pauses
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	logger.Log.Info("profiler",
		zap.Float64("fps", float64(p.frameCount)/elapsed.Seconds()),
		zap.Int("passes", passCount),
		zap.Float64("heap_mb", float64(p.memStats.Alloc)/1024/1024),
		zap.Float64("alloc_mb_per_s", allocRate),
		zap.Uint32("gc", gcCount),
		zap.Duration("gc_last_pause", lastPause),
		zap.Duration("gc_max_pause", maxPause),
		zap.Float64("sys_mb", float64(p.memStats.Sys)/1024/1024),
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
