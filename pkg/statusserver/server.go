package statusserver

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/c2h5oh/datasize"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/procpilot/internal/utils"
	"github.com/voluzi/procpilot/pkg/procwatcher"
)

// ProcessSource is the read-only view of the watcher the server needs.
type ProcessSource interface {
	IsWatching() bool
	KnownProcesses() []procwatcher.ProcessHandle
}

// RecordingSource is the read-only view of the scheduler the server needs.
type RecordingSource interface {
	RecordedPids() []int32
}

// Server exposes watcher and recording state over HTTP for operators. It
// only reads snapshots; the recording core itself stays network-free.
type Server struct {
	cfg       *Options
	router    *mux.Router
	processes ProcessSource
	recording RecordingSource
	names     *ttlcache.Cache[int32, string]
	srv       *http.Server
}

func New(processes ProcessSource, recording RecordingSource, opts ...Option) *Server {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	names := ttlcache.New(
		ttlcache.WithTTL[int32, string](options.NameTTL),
	)

	s := &Server{
		cfg:       options,
		router:    mux.NewRouter(),
		processes: processes,
		recording: recording,
		names:     names,
	}
	s.registerRoutes()
	go names.Start()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/processes", s.listProcesses).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.router,
	}
	log.Infof("status server listening on %s:%d", s.cfg.Host, s.cfg.Port)
	return s.srv.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.names.Stop()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if !s.processes.IsWatching() {
		http.Error(w, "watcher not running", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type processInfo struct {
	Pid           int32  `json:"pid"`
	Name          string `json:"name,omitempty"`
	VirtualMemory uint64 `json:"virtual_memory_bytes"`
	MemoryHuman   string `json:"virtual_memory,omitempty"`
	Recording     bool   `json:"recording"`
}

func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) {
	recorded := s.recording.RecordedPids()

	handles := s.processes.KnownProcesses()
	infos := make([]processInfo, 0, len(handles))
	for _, h := range handles {
		info := processInfo{
			Pid:       h.Pid(),
			Name:      s.resolveName(h),
			Recording: utils.SliceContains(recorded, h.Pid()),
		}
		if vms, err := h.VirtualMemory(); err == nil {
			info.VirtualMemory = vms
			info.MemoryHuman = datasize.ByteSize(vms).HumanReadable()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Pid < infos[j].Pid })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		log.WithError(err).Error("failed to encode process list")
	}
}

// resolveName caches name lookups; handles without a name accessor (fakes,
// remote stubs) come back empty.
func (s *Server) resolveName(h procwatcher.ProcessHandle) string {
	if item := s.names.Get(h.Pid()); item != nil {
		return item.Value()
	}

	named, ok := h.(interface{ Name() string })
	if !ok {
		return ""
	}
	name := named.Name()
	if name != "" {
		s.names.Set(h.Pid(), name, ttlcache.DefaultTTL)
	}
	return name
}
