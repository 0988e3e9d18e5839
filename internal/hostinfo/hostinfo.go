// Package hostinfo describes the machine a run executes on.
package hostinfo

import (
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
)

// Info is a snapshot of host capacity.
type Info struct {
	CPUBrand       string
	LogicalCPUs    int
	PhysicalCores  int
	ThreadsPerCore int
	TotalMemory    uint64
	GOMAXPROCS     int
}

// Detect reads the host. Fields the CPU does not report stay at safe values.
func Detect() Info {
	ncpu := runtime.NumCPU()
	tpc := cpuid.CPU.ThreadsPerCore
	if tpc < 1 {
		tpc = 1
	}
	cores := cpuid.CPU.PhysicalCores
	if cores < 1 {
		cores = ncpu / tpc
	}
	if cores < 1 {
		cores = 1
	}
	return Info{
		CPUBrand:       cpuid.CPU.BrandName,
		LogicalCPUs:    ncpu,
		PhysicalCores:  cores,
		ThreadsPerCore: tpc,
		TotalMemory:    memory.TotalMemory(),
		GOMAXPROCS:     runtime.GOMAXPROCS(0),
	}
}

// AvailableParallelism is the worker floor offered to the pool sizing policy.
func AvailableParallelism() int { return max(runtime.GOMAXPROCS(0), 1) }

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (i Info) MarshalZerologObject(e *zerolog.Event) {
	e.Str("cpu", i.CPUBrand).
		Int("logical_cpus", i.LogicalCPUs).
		Int("physical_cores", i.PhysicalCores).
		Int("threads_per_core", i.ThreadsPerCore).
		Uint64("memory_mib", i.TotalMemory/(1024*1024)).
		Int("gomaxprocs", i.GOMAXPROCS)
}
