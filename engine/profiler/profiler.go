package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one sample of frame rate and memory statistics.
type Stats struct {
	FPS float64
	// FrameTime is the mean frame duration over the sample window.
	FrameTime time.Duration
	// HeapMB is the live heap size.
	HeapMB float64
	// AllocRateMB is the allocation rate in MB/s over the sample window.
	AllocRateMB float64
	// SysMB is the memory obtained from the OS.
	SysMB float64
	// GCCount is the total number of completed GC cycles.
	GCCount uint32
	// LastPause and MaxPause are the most recent and the longest GC pause in the window.
	LastPause, MaxPause time.Duration
}

// Profiler tracks frame rate and memory statistics. A new sample is taken once per update
// interval and, when logging is enabled, written to the log.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	logging bool
	stats   Stats
	now     func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second and logging is off.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// SetLogging turns the per-sample log line on or off.
func (p *Profiler) SetLogging(enabled bool) {
	p.logging = enabled
}

// Logging reports whether samples are logged.
func (p *Profiler) Logging() bool {
	return p.logging
}

// Stats returns the most recent sample. It is zero until the first interval has elapsed.
func (p *Profiler) Stats() Stats {
	return p.stats
}

// Tick should be called once per frame to track frame timing.
// Takes a sample when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if a sample was taken this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	s := Stats{
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		FrameTime: elapsed / time.Duration(p.frameCount),
		HeapMB:    float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:     float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:   p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if s.GCCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		s.LastPause = time.Duration(p.memStats.PauseNs[(s.GCCount+255)%256])

		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPause = max(s.MaxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}
	p.stats = s

	if p.logging {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			s.FPS, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPause.Microseconds(), s.MaxPause.Microseconds(), s.SysMB)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
