package procwatcher

import (
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/process"
)

// ProcessHandle is the minimal view of a live process required by the
// recording core. Handles are owned by the caller; the core only reads
// from them and never manages the process lifecycle.
type ProcessHandle interface {
	Pid() int32
	Exited() bool
	// CPUTime returns the cumulative user+system CPU time.
	CPUTime() (time.Duration, error)
	// VirtualMemory returns the current virtual memory size in bytes.
	VirtualMemory() (uint64, error)
}

// Handle implements ProcessHandle on top of gopsutil.
type Handle struct {
	proc *process.Process
}

func NewHandle(pid int32) (*Handle, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open process %d", pid)
	}
	return &Handle{proc: proc}, nil
}

func (h *Handle) Pid() int32 {
	return h.proc.Pid
}

func (h *Handle) Exited() bool {
	running, err := h.proc.IsRunning()
	if err != nil {
		return true
	}
	return !running
}

func (h *Handle) CPUTime() (time.Duration, error) {
	times, err := h.proc.Times()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get CPU times")
	}
	return time.Duration((times.User + times.System) * float64(time.Second)), nil
}

func (h *Handle) VirtualMemory() (uint64, error) {
	mem, err := h.proc.MemoryInfo()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get memory info")
	}
	return mem.VMS, nil
}

// Name returns the process executable name, or an empty string when it
// cannot be read.
func (h *Handle) Name() string {
	name, err := h.proc.Name()
	if err != nil {
		return ""
	}
	return name
}
