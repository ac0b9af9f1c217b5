package simdprim

import "sync"

// cpuFeatures records which wide-vector instruction sets the running CPU
// supports. This module never dispatches to real vector code (see the
// package doc comment); the features feed only PreferredChunkBytes, and
// are resolved once and reused, mirroring how the teacher's
// internal/fastparser/simd package resolves useSIMD once for the lifetime
// of a Parser.
type cpuFeatures struct {
	hasAVX2   bool
	hasSSE42  bool
}

var (
	caps     cpuFeatures
	capsOnce sync.Once
)

func detect() {
	capsOnce.Do(func() {
		caps = getCPUFeatures()
	})
}

// HasAVX2 reports whether the running CPU supports AVX2.
func HasAVX2() bool {
	detect()
	return caps.hasAVX2
}

// HasSSE42 reports whether the running CPU supports SSE4.2.
func HasSSE42() bool {
	detect()
	return caps.hasSSE42
}

// PreferredChunkBytes returns a chunk size for fanning out first/second-pass
// work, based on detected CPU capabilities. Wider vector support correlates
// with larger L2/L3 caches on the CPUs this was tuned against, so chunks
// scale up accordingly; this is a tuning knob, not a contract (spec.md §9).
// Nothing else in this module calls it: internal/orchestrator splits the
// input into one chunk per thread.
func PreferredChunkBytes() int {
	switch {
	case HasAVX2():
		return 256 * 1024
	case HasSSE42():
		return 128 * 1024
	default:
		return 64 * 1024
	}
}
