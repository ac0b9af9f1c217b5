//go:build !amd64

package simdprim

// getCPUFeatures reports no wide-vector support on non-amd64 platforms.
// Future: query golang.org/x/sys/cpu.ARM64 for NEON-equivalent hints.
func getCPUFeatures() cpuFeatures {
	return cpuFeatures{}
}
