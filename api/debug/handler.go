// Package debug is the ambient pprof/memsize/metrics debug surface
// every broker-family binary exposes, adapted from the teacher's own
// api/debug package: the same profiling handler shape, rewired onto
// this repo's log package and SPEC_FULL.md's metrics domain stack
// (rcrowley/go-metrics, prometheus/client_golang, fjl/memsize) in
// place of the teacher's go-ethereum-style expvar bridge.
package debug

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"sync"
	"time"

	"github.com/ground-x/blmessaging/log"
)

// Handler is the global debugging handler, matching the teacher's
// package-level singleton so callers never construct a HandlerT
// themselves.
var Handler = new(HandlerT)

var logger = log.New("debug")

// HandlerT implements the debugging API: CPU/goroutine/mutex/memory
// profiling plus an optional pprof+metrics+memsize HTTP mux.
type HandlerT struct {
	mu        sync.Mutex
	cpuW      io.WriteCloser
	cpuFile   string
	memFile   string
	traceW    io.WriteCloser
	traceFile string

	handlerInited bool
	pprofServer   *http.Server
}

// MemStats returns detailed runtime memory statistics.
func (*HandlerT) MemStats() *runtime.MemStats {
	s := new(runtime.MemStats)
	runtime.ReadMemStats(s)
	return s
}

// GcStats returns GC statistics.
func (*HandlerT) GcStats() *debug.GCStats {
	s := new(debug.GCStats)
	debug.ReadGCStats(s)
	return s
}

// StartPProf starts the debug HTTP server (pprof, /debug/metrics,
// /debug/memsize) on address:port, defaulting to the configured
// pprof flag values when either is zero.
func (h *HandlerT) StartPProf(address string, port int) error {
	if address == "" {
		address = pprofAddrFlag.Value
	}
	if port == 0 {
		port = pprofPortFlag.Value
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pprofServer != nil {
		return errors.New("debug: pprof server is already running")
	}

	mux := http.NewServeMux()
	registerPProfHandlers(mux)
	registerMetricsHandler(mux)
	registerMemsizeHandler(mux)

	serverAddr := fmt.Sprintf("%s:%d", address, port)
	httpServer := &http.Server{Addr: serverAddr, Handler: mux}

	logger.Info("debug: starting debug HTTP server", "addr", "http://"+serverAddr+"/debug/pprof")
	go func(handle *HandlerT) {
		if err := httpServer.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				logger.Info("debug: debug HTTP server closed")
			} else {
				logger.Error("debug: failure running debug HTTP server", "err", err)
			}
		}
		handle.mu.Lock()
		handle.pprofServer = nil
		handle.mu.Unlock()
	}(h)

	h.pprofServer = httpServer
	h.handlerInited = true
	return nil
}

// StopPProf stops the debug HTTP server.
func (h *HandlerT) StopPProf() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pprofServer == nil {
		return errors.New("debug: pprof server is not running")
	}
	logger.Info("debug: shutting down debug HTTP server")
	return h.pprofServer.Close()
}

// IsPProfRunning reports whether the debug HTTP server is up.
func (h *HandlerT) IsPProfRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pprofServer != nil
}

// CpuProfile turns on CPU profiling for nsec seconds and writes
// profile data to file.
func (h *HandlerT) CpuProfile(file string, nsec uint) error {
	if err := h.StartCPUProfile(file); err != nil {
		return err
	}
	time.Sleep(time.Duration(nsec) * time.Second)
	h.StopCPUProfile()
	return nil
}

// StartCPUProfile turns on CPU profiling, writing to the given file.
func (h *HandlerT) StartCPUProfile(file string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cpuW != nil {
		return errors.New("debug: CPU profiling already in progress")
	}
	f, err := os.Create(expandHome(file))
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}
	h.cpuW = f
	h.cpuFile = file
	logger.Info("debug: CPU profiling started", "dump", h.cpuFile)
	return nil
}

// StopCPUProfile stops an ongoing CPU profile.
func (h *HandlerT) StopCPUProfile() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	pprof.StopCPUProfile()
	if h.cpuW == nil {
		return errors.New("debug: CPU profiling not in progress")
	}
	logger.Info("debug: done writing CPU profile", "dump", h.cpuFile)
	h.cpuW.Close()
	h.cpuW = nil
	h.cpuFile = ""
	return nil
}

// GoTrace turns on tracing for nsec seconds and writes trace data to file.
func (h *HandlerT) GoTrace(file string, nsec uint) error {
	if err := h.StartGoTrace(file); err != nil {
		return err
	}
	time.Sleep(time.Duration(nsec) * time.Second)
	return h.StopGoTrace()
}

// StartGoTrace turns on tracing, writing to the given file.
func (h *HandlerT) StartGoTrace(file string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.traceW != nil {
		return errors.New("debug: trace already in progress")
	}
	f, err := os.Create(expandHome(file))
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		f.Close()
		return err
	}
	h.traceW = f
	h.traceFile = file
	logger.Info("debug: trace started", "dump", h.traceFile)
	return nil
}

// StopGoTrace stops an ongoing trace.
func (h *HandlerT) StopGoTrace() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	trace.Stop()
	if h.traceW == nil {
		return errors.New("debug: trace not in progress")
	}
	logger.Info("debug: done writing trace", "dump", h.traceFile)
	h.traceW.Close()
	h.traceW = nil
	h.traceFile = ""
	return nil
}

// BlockProfile turns on goroutine block profiling for nsec seconds and
// writes profile data to file.
func (*HandlerT) BlockProfile(file string, nsec uint) error {
	runtime.SetBlockProfileRate(1)
	time.Sleep(time.Duration(nsec) * time.Second)
	defer runtime.SetBlockProfileRate(0)
	return writeProfile("block", file)
}

// SetBlockProfileRate sets the rate of goroutine block profile data
// collection. rate 0 disables block profiling.
func (*HandlerT) SetBlockProfileRate(rate int) {
	runtime.SetBlockProfileRate(rate)
}

// WriteBlockProfile writes a goroutine blocking profile to file.
func (*HandlerT) WriteBlockProfile(file string) error {
	return writeProfile("block", file)
}

// MutexProfile turns on mutex profiling for nsec seconds and writes
// profile data to file.
func (*HandlerT) MutexProfile(file string, nsec uint) error {
	runtime.SetMutexProfileFraction(1)
	time.Sleep(time.Duration(nsec) * time.Second)
	defer runtime.SetMutexProfileFraction(0)
	return writeProfile("mutex", file)
}

// SetMutexProfileFraction sets the rate of mutex profiling.
func (*HandlerT) SetMutexProfileFraction(rate int) {
	runtime.SetMutexProfileFraction(rate)
}

// WriteMutexProfile writes a mutex profile to file.
func (*HandlerT) WriteMutexProfile(file string) error {
	return writeProfile("mutex", file)
}

// WriteMemProfile writes an allocation profile to file. The profiling
// rate cannot be set through the API; set runtime.MemProfileRate or
// --memprofilerate on the command line.
func (*HandlerT) WriteMemProfile(file string) error {
	return writeProfile("heap", file)
}

// Stacks returns a printed representation of the stacks of all goroutines.
func (*HandlerT) Stacks() string {
	buf := make([]byte, 1024*1024)
	buf = buf[:runtime.Stack(buf, true)]
	return string(buf)
}

// FreeOSMemory returns unused memory to the OS.
func (*HandlerT) FreeOSMemory() { debug.FreeOSMemory() }

// SetGCPercent sets the garbage collection target percentage,
// returning the previous setting. A negative value disables GC.
func (*HandlerT) SetGCPercent(v int) int { return debug.SetGCPercent(v) }

func writeProfile(name, file string) error {
	p := pprof.Lookup(name)
	logger.Info("debug: writing profile records", "count", p.Count(), "type", name, "dump", file)
	f, err := os.Create(expandHome(file))
	if err != nil {
		return err
	}
	defer f.Close()
	return p.WriteTo(f, 0)
}

// expandHome expands a leading "~/" in file paths. "~someuser/tmp" is
// left untouched, matching the teacher's own rule.
func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		home := os.Getenv("HOME")
		if home == "" {
			if usr, err := user.Current(); err == nil {
				home = usr.HomeDir
			}
		}
		if home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(p)
}
