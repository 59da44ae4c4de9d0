package procwatcher

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Listener receives process lifecycle events. Both callbacks run
// synchronously on the watcher goroutine and must not block it.
type Listener interface {
	NewProcess(h ProcessHandle)
	ProcessStopped(pid int32)
}

// Watcher polls the OS process table and reports processes appearing in or
// disappearing from it. At most one poll loop runs per Watcher; detection
// latency is bounded by the poll interval.
type Watcher struct {
	cfg *Options

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	known     map[int32]ProcessHandle
	listeners []Listener
}

func New(opts ...Option) *Watcher {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Watcher{
		cfg:   options,
		known: make(map[int32]ProcessHandle),
	}
}

// StartWatching spawns the poll loop. It returns false without side effects
// when the watcher is already running.
func (w *Watcher) StartWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return false
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop(w.stopCh, w.doneCh)
	return true
}

// StopWatching signals the poll loop and blocks until it has exited, bounded
// by at most one in-flight poll. It returns false when the watcher is not
// running. Safe to call from any goroutine.
func (w *Watcher) StopWatching() bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	return true
}

func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// KnownProcesses returns a snapshot of the processes seen at the last poll.
func (w *Watcher) KnownProcesses() []ProcessHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	handles := make([]ProcessHandle, 0, len(w.known))
	for _, h := range w.known {
		handles = append(handles, h)
	}
	return handles
}

func (w *Watcher) Subscribe(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

func (w *Watcher) Unsubscribe(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, s := range w.listeners {
		if s == l {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

func (w *Watcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	pids, err := w.cfg.Lister()
	if err != nil {
		log.WithError(err).Warn("could not list processes, skipping poll")
		return
	}

	current := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		current[pid] = struct{}{}
	}

	w.mu.Lock()
	listeners := make([]Listener, len(w.listeners))
	copy(listeners, w.listeners)

	var started []int32
	for _, pid := range pids {
		if _, ok := w.known[pid]; !ok {
			started = append(started, pid)
		}
	}
	var stopped []int32
	for pid := range w.known {
		if _, ok := current[pid]; !ok {
			stopped = append(stopped, pid)
		}
	}
	w.mu.Unlock()

	// Events fire on this goroutine, outside the watcher lock, before the
	// known set is updated for the pid in question.
	for _, pid := range started {
		handle, err := w.cfg.HandleFactory(pid)
		if err != nil {
			// The process is likely gone already; it will simply never
			// enter the known set.
			continue
		}
		for _, l := range listeners {
			l.NewProcess(handle)
		}
		w.mu.Lock()
		w.known[pid] = handle
		w.mu.Unlock()
	}

	for _, pid := range stopped {
		for _, l := range listeners {
			l.ProcessStopped(pid)
		}
		w.mu.Lock()
		delete(w.known, pid)
		w.mu.Unlock()
	}
}
