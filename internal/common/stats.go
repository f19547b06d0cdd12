package common

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters for ingest/export telemetry.
type Stats struct {
	ObjectsProcessed uint64 // Atomic counter for light curves / spectra processed
	RowsProcessed    uint64 // Atomic counter for observation rows emitted
	BytesRead        uint64 // Atomic counter for bytes read from disk

	running  atomic.Bool
	stopCh   chan struct{}
	silent   bool
	lastRows uint64
	lastTime time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{stopCh: make(chan struct{})}
}

// AddObjects atomically increments the objects-processed counter.
func (s *Stats) AddObjects(count uint64) {
	atomic.AddUint64(&s.ObjectsProcessed, count)
}

// AddRows atomically increments the rows-processed counter.
func (s *Stats) AddRows(count uint64) {
	atomic.AddUint64(&s.RowsProcessed, count)
}

// AddBytes atomically increments the bytes-read counter.
func (s *Stats) AddBytes(count uint64) {
	atomic.AddUint64(&s.BytesRead, count)
}

// GetObjects atomically reads the objects-processed counter.
func (s *Stats) GetObjects() uint64 {
	return atomic.LoadUint64(&s.ObjectsProcessed)
}

// GetRows atomically reads the rows-processed counter.
func (s *Stats) GetRows() uint64 {
	return atomic.LoadUint64(&s.RowsProcessed)
}

// GetBytes atomically reads the bytes-read counter.
func (s *Stats) GetBytes() uint64 {
	return atomic.LoadUint64(&s.BytesRead)
}

// SetSilent enables or disables silent mode.
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine that prints telemetry
// every second using newline-based output to avoid conflicts with
// log.Printf statements.
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return
	}

	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastRows = 0

	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine.
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus()
		}
	}
}

func (s *Stats) printStatus() {
	if s.silent {
		return
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		return
	}

	currentRows := s.GetRows()
	deltaRows := currentRows - s.lastRows
	rps := float64(deltaRows) / elapsed

	fmt.Printf("[Progress] Objects: %d | Rows: %d (%.0f rows/s) | Read: %.1f MiB\n",
		s.GetObjects(),
		currentRows,
		rps,
		float64(s.GetBytes())/(1024*1024),
	)

	s.lastRows = currentRows
	s.lastTime = now
}

// Reset resets all counters.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.ObjectsProcessed, 0)
	atomic.StoreUint64(&s.RowsProcessed, 0)
	atomic.StoreUint64(&s.BytesRead, 0)
	s.lastRows = 0
	s.lastTime = time.Now()
}
