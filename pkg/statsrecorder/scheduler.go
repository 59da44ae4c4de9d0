package statsrecorder

import (
	"sort"
	"sync"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/procpilot/pkg/procwatcher"
)

// Scheduler runs one background sampling loop per process id, shared by
// every ProcessDataSet recording that process. A single mutex guards the
// whole pid table and all callback maps; callbacks themselves always run
// with the table lock released, so StartRecording and StopRecording may be
// called from any goroutine while a tick is in flight.
type Scheduler struct {
	cfg *SchedulerOptions

	mu      sync.Mutex
	entries map[int32]*schedulerEntry
	closed  bool
	wg      sync.WaitGroup
}

type schedulerEntry struct {
	handle    procwatcher.ProcessHandle
	callbacks map[string]func() error
	stopCh    chan struct{}
	ranOnce   bool
	idledOnce bool
}

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	options := defaultSchedulerOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Scheduler{
		cfg:     options,
		entries: make(map[int32]*schedulerEntry),
	}
}

// StartRecording registers a record callback for h under the given dataset
// id, creating the per-process loop on first registration. It returns false
// when the id is already registered for that process, or after Shutdown.
func (s *Scheduler) StartRecording(h procwatcher.ProcessHandle, id string, record func() error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	e, ok := s.entries[h.Pid()]
	if !ok {
		e = &schedulerEntry{
			handle:    h,
			callbacks: make(map[string]func() error),
			stopCh:    make(chan struct{}),
		}
		s.entries[h.Pid()] = e
		s.wg.Add(1)
		go s.loop(h.Pid(), e)
	}

	if _, dup := e.callbacks[id]; dup {
		return false
	}
	e.callbacks[id] = record
	return true
}

// StopRecording unregisters the callback for (pid, id). The loop notices
// the empty table after its current cycle and removes the entry itself.
func (s *Scheduler) StopRecording(pid int32, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[pid]
	if !ok {
		return false
	}
	if _, ok := e.callbacks[id]; !ok {
		return false
	}
	delete(e.callbacks, id)
	return true
}

func (s *Scheduler) IsRecording(pid int32, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[pid]
	if !ok {
		return false
	}
	_, ok = e.callbacks[id]
	return ok
}

// RecordedPids returns the pids that currently have a scheduler entry.
func (s *Scheduler) RecordedPids() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	pids := make([]int32, 0, len(s.entries))
	for pid := range s.entries {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

// Shutdown stops every loop and waits for them to exit. The scheduler
// accepts no further registrations afterwards.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	for _, e := range s.entries {
		close(e.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(pid int32, e *schedulerEntry) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		callbacks := make([]func() error, 0, len(e.callbacks))
		for _, cb := range e.callbacks {
			callbacks = append(callbacks, cb)
		}
		if len(callbacks) == 0 && (e.ranOnce || e.idledOnce) {
			delete(s.entries, pid)
			s.mu.Unlock()
			return
		}
		e.idledOnce = len(callbacks) == 0
		s.mu.Unlock()

		if len(callbacks) == 0 {
			if !s.pause(e.stopCh, s.cfg.IdleInterval) {
				s.remove(pid)
				return
			}
			continue
		}

		// One tick: all callbacks concurrently, joined before anything else.
		var (
			wg    sync.WaitGroup
			errMu sync.Mutex
			errs  []error
		)
		for _, cb := range callbacks {
			wg.Add(1)
			go func(record func() error) {
				defer wg.Done()
				if err := record(); err != nil {
					errMu.Lock()
					errs = append(errs, err)
					errMu.Unlock()
				}
			}(cb)
		}
		wg.Wait()

		if err := errors.Combine(errs...); err != nil {
			// Fail loud: silently dropped samples would corrupt the time
			// series. Datasets must call StartRecording again to resume.
			log.WithField("pid", pid).WithError(err).
				Error("sampling tick failed, stopping recording for process")
			s.remove(pid)
			return
		}

		s.mu.Lock()
		e.ranOnce = true
		s.mu.Unlock()

		if !s.pause(e.stopCh, s.cfg.SampleInterval) {
			s.remove(pid)
			return
		}
	}
}

// pause waits for d, returning false when the entry was told to stop.
func (s *Scheduler) pause(stop <-chan struct{}, d time.Duration) bool {
	select {
	case <-stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Scheduler) remove(pid int32) {
	s.mu.Lock()
	delete(s.entries, pid)
	s.mu.Unlock()
}
