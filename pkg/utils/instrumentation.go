package utils

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Instrumentation provides timing and progress tracking for analysis runs
type Instrumentation struct {
	logger  *slog.Logger
	verbose bool
}

// NewInstrumentation creates a new instrumentation instance
func NewInstrumentation(logger *slog.Logger, verbose bool) *Instrumentation {
	return &Instrumentation{
		logger:  logger,
		verbose: verbose,
	}
}

// TimedOperation wraps a function with timing instrumentation
func (i *Instrumentation) TimedOperation(name string, operation func() error) error {
	start := time.Now()
	i.logger.Debug("Starting operation", "operation", name)

	err := operation()
	duration := time.Since(start)

	if err != nil {
		i.logger.Error("Operation failed", "operation", name, "duration_seconds", duration.Seconds(), "error", err)
	} else {
		i.logger.Debug("Operation completed", "operation", name, "duration_seconds", duration.Seconds())
	}

	return err
}

// ProgressTracker counts processed files; safe for concurrent Update calls
type ProgressTracker struct {
	name       string
	total      int
	processed  int64
	lastUpdate int64 // Unix nano timestamp of the last progress log
	startTime  time.Time
	verbose    bool
	logger     *slog.Logger
}

// NewProgressTracker creates a new progress tracker
func (i *Instrumentation) NewProgressTracker(name string, total int) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		name:       name,
		total:      total,
		lastUpdate: now.UnixNano(),
		startTime:  now,
		verbose:    i.verbose,
		logger:     i.logger,
	}
}

// Update increments the progress and logs it every 25 items or every 2 seconds
func (pt *ProgressTracker) Update(increment int) {
	newProcessed := atomic.AddInt64(&pt.processed, int64(increment))
	if !pt.verbose || pt.total == 0 {
		return
	}

	now := time.Now()
	lastUpdateNano := atomic.LoadInt64(&pt.lastUpdate)
	if newProcessed%25 != 0 && now.Sub(time.Unix(0, lastUpdateNano)) <= 2*time.Second {
		return
	}
	if !atomic.CompareAndSwapInt64(&pt.lastUpdate, lastUpdateNano, now.UnixNano()) {
		return
	}

	pt.logger.Debug("Progress update",
		"operation", pt.name,
		"processed", newProcessed,
		"total", pt.total,
		"percentage", float64(newProcessed)/float64(pt.total)*100,
		"elapsed_seconds", now.Sub(pt.startTime).Seconds())
}

// Processed returns how many items have been counted so far
func (pt *ProgressTracker) Processed() int {
	return int(atomic.LoadInt64(&pt.processed))
}

// Complete marks the operation as finished
func (pt *ProgressTracker) Complete() {
	pt.logger.Debug("Progress tracking completed",
		"operation", pt.name,
		"processed", pt.Processed(),
		"total", pt.total,
		"duration_seconds", time.Since(pt.startTime).Seconds())
}

// GetMemoryUsage returns current memory usage in a human-readable format
func GetMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := float64(m.Alloc) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024

	return fmt.Sprintf("%.1fMB allocated, %.1fMB system", allocMB, sysMB)
}

// PhaseTracker times the sequential phases of a run
type PhaseTracker struct {
	mu           sync.Mutex
	name         string
	phases       map[string]time.Time
	durations    map[string]time.Duration
	order        []string
	currentPhase string
	startTime    time.Time
	logger       *slog.Logger
}

// NewPhaseTracker creates a new phase tracker
func (i *Instrumentation) NewPhaseTracker(name string) *PhaseTracker {
	i.logger.Debug("Starting operation", "operation", name)

	return &PhaseTracker{
		name:      name,
		phases:    make(map[string]time.Time),
		durations: make(map[string]time.Duration),
		startTime: time.Now(),
		logger:    i.logger,
	}
}

// StartPhase ends the current phase, if any, and begins a new one
func (pt *PhaseTracker) StartPhase(phaseName string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.endPhaseLocked()
	pt.currentPhase = phaseName
	pt.phases[phaseName] = time.Now()
	pt.order = append(pt.order, phaseName)

	pt.logger.Debug("Starting phase", "phase", phaseName, "parent_operation", pt.name)
}

// EndPhase ends the current phase
func (pt *PhaseTracker) EndPhase() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.endPhaseLocked()
}

func (pt *PhaseTracker) endPhaseLocked() {
	if pt.currentPhase == "" {
		return
	}

	if start, exists := pt.phases[pt.currentPhase]; exists {
		duration := time.Since(start)
		pt.durations[pt.currentPhase] += duration
		pt.logger.Debug("Phase completed", "phase", pt.currentPhase, "duration_seconds", duration.Seconds(), "parent_operation", pt.name)
	}

	pt.currentPhase = ""
}

// Phases returns the phase names in the order they were started
func (pt *PhaseTracker) Phases() []string {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return append([]string(nil), pt.order...)
}

// Complete finishes the entire operation
func (pt *PhaseTracker) Complete(totalItems int) {
	pt.EndPhase()

	pt.mu.Lock()
	slowest := ""
	for _, phase := range pt.order {
		if slowest == "" || pt.durations[phase] > pt.durations[slowest] {
			slowest = phase
		}
	}
	pt.mu.Unlock()

	pt.logger.Debug("Operation completed",
		"operation", pt.name,
		"items", totalItems,
		"slowest_phase", slowest,
		"duration_seconds", time.Since(pt.startTime).Seconds(),
		"memory_usage", GetMemoryUsage())
}
