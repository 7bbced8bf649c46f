package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Probe reports host resources. Swapped out in tests.
type Probe interface {
	LogicalCPUs() (int, error)
	AvailableMemory() (uint64, error)
}

// HostProbe reads the real machine through gopsutil.
type HostProbe struct{}

func (HostProbe) LogicalCPUs() (int, error) {
	return cpu.Counts(true)
}

func (HostProbe) AvailableMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// FrameBytes is the RGBA size of one frame.
func FrameBytes(width, height int) uint64 {
	return uint64(width) * uint64(height) * 4
}

// RecommendedWorkers sizes the frame export pool: one worker per logical
// CPU, capped so that every worker can hold a few frames in memory at once.
func RecommendedWorkers(p Probe, width, height int) int {
	workers, err := p.LogicalCPUs()
	if err != nil || workers <= 0 {
		workers = runtime.NumCPU()
	}

	avail, err := p.AvailableMemory()
	if err == nil && avail > 0 {
		// frame, clip media and scratch buffers
		perWorker := FrameBytes(width, height) * 4
		if perWorker > 0 {
			if byMem := int(avail / perWorker); byMem < workers {
				workers = byMem
			}
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}
