// Package monitoring reports process memory and scheduler statistics for the
// detailed health endpoint.
package monitoring

import (
	"runtime"
)

const bytesPerMB = 1 << 20

// Runtime is a point-in-time view of the Go runtime.
type Runtime struct {
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	HeapInuseMB   float64 `json:"heap_inuse_mb"`
	HeapIdleMB    float64 `json:"heap_idle_mb"`
	StackInuseMB  float64 `json:"stack_inuse_mb"`
	NumGC         uint32  `json:"num_gc"`
	LastGCPauseMs float64 `json:"last_gc_pause_ms,omitempty"`
	Goroutines    int     `json:"goroutines"`
	GOMAXPROCS    int     `json:"gomaxprocs"`
	GoVersion     string  `json:"go_version"`
}

// Snapshot reads runtime.MemStats. It stops the world briefly, so callers
// use it on the detailed health path only.
func Snapshot() Runtime {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return fromMemStats(&ms)
}

func fromMemStats(ms *runtime.MemStats) Runtime {
	r := Runtime{
		HeapAllocMB:  toMB(ms.HeapAlloc),
		HeapInuseMB:  toMB(ms.HeapInuse),
		HeapIdleMB:   toMB(ms.HeapIdle),
		StackInuseMB: toMB(ms.StackInuse),
		NumGC:        ms.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		GoVersion:    runtime.Version(),
	}
	if ms.NumGC > 0 {
		// PauseNs is a ring buffer; the latest pause sits at (NumGC+255)%256.
		r.LastGCPauseMs = float64(ms.PauseNs[(ms.NumGC+255)%256]) / 1e6
	}
	return r
}

func toMB(b uint64) float64 {
	return float64(b) / bytesPerMB
}
