// Package stats tracks counters for compression runs, used by the serve
// UI and end-of-run summaries.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Statistics accumulates counters across the compression jobs of one run.
type Statistics struct {
	JobsStarted   int64
	JobsCompleted int64
	JobsBestEff   int64
	JobsNoOp      int64
	JobsFailed    int64
	Iterations    int64
	BytesIn       int64
	BytesOut      int64

	StartTime time.Time
}

// NewStatistics returns a fresh Statistics with the clock started.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// JobStarted records a new compression job.
func (s *Statistics) JobStarted() {
	atomic.AddInt64(&s.JobsStarted, 1)
}

// JobCompleted records a job that reached its target size.
func (s *Statistics) JobCompleted(bytesIn, bytesOut int64) {
	atomic.AddInt64(&s.JobsCompleted, 1)
	atomic.AddInt64(&s.BytesIn, bytesIn)
	atomic.AddInt64(&s.BytesOut, bytesOut)
}

// JobBestEffort records a job that exhausted its iteration cap.
func (s *Statistics) JobBestEffort(bytesIn, bytesOut int64) {
	atomic.AddInt64(&s.JobsBestEff, 1)
	atomic.AddInt64(&s.BytesIn, bytesIn)
	atomic.AddInt64(&s.BytesOut, bytesOut)
}

// JobNoOp records a job whose source already met the target.
func (s *Statistics) JobNoOp() {
	atomic.AddInt64(&s.JobsNoOp, 1)
}

// JobFailed records a job that aborted with an error.
func (s *Statistics) JobFailed() {
	atomic.AddInt64(&s.JobsFailed, 1)
}

// AddIterations records how many encode iterations a job ran.
func (s *Statistics) AddIterations(n int) {
	atomic.AddInt64(&s.Iterations, int64(n))
}

// Snapshot returns a consistent copy of the counters for serialization.
func (s *Statistics) Snapshot() map[string]int64 {
	return map[string]int64{
		"jobs_started":     atomic.LoadInt64(&s.JobsStarted),
		"jobs_completed":   atomic.LoadInt64(&s.JobsCompleted),
		"jobs_best_effort": atomic.LoadInt64(&s.JobsBestEff),
		"jobs_noop":        atomic.LoadInt64(&s.JobsNoOp),
		"jobs_failed":      atomic.LoadInt64(&s.JobsFailed),
		"iterations":       atomic.LoadInt64(&s.Iterations),
		"bytes_in":         atomic.LoadInt64(&s.BytesIn),
		"bytes_out":        atomic.LoadInt64(&s.BytesOut),
	}
}

// GetSummary returns a formatted summary of the run.
func (s *Statistics) GetSummary() string {
	bytesIn := atomic.LoadInt64(&s.BytesIn)
	bytesOut := atomic.LoadInt64(&s.BytesOut)
	saved := bytesIn - bytesOut
	if saved < 0 {
		saved = 0
	}
	return fmt.Sprintf(`Compression Summary:
		Jobs Started: %d
		Reached Target: %d
		Best Effort: %d
		Already Small Enough: %d
		Failed: %d
		Encode Iterations: %d
		Bytes In: %s
		Bytes Out: %s
		Saved: %s
		Duration: %v`,
		atomic.LoadInt64(&s.JobsStarted),
		atomic.LoadInt64(&s.JobsCompleted),
		atomic.LoadInt64(&s.JobsBestEff),
		atomic.LoadInt64(&s.JobsNoOp),
		atomic.LoadInt64(&s.JobsFailed),
		atomic.LoadInt64(&s.Iterations),
		humanize.Bytes(uint64(bytesIn)),
		humanize.Bytes(uint64(bytesOut)),
		humanize.Bytes(uint64(saved)),
		time.Since(s.StartTime).Round(time.Millisecond))
}
