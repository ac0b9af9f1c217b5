//go:build amd64

package simdprim

import "golang.org/x/sys/cpu"

func getCPUFeatures() cpuFeatures {
	return cpuFeatures{
		hasAVX2:  cpu.X86.HasAVX2,
		hasSSE42: cpu.X86.HasSSE42,
	}
}
