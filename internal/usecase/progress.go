// Package usecase contains application business logic services.
package usecase

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// ProgressStatus is the terminal or transient state reported for one unit
// of work.
type ProgressStatus string

// Progress statuses accepted by ProgressTracker.Update.
const (
	ProgressSuccess    ProgressStatus = "success"
	ProgressFailed     ProgressStatus = "failed"
	ProgressSkipped    ProgressStatus = "skipped"
	ProgressInProgress ProgressStatus = "in_progress"
)

// ProgressTracker keeps thread-safe counters for one evaluation run.
// All mutation happens under a single mutex; reads return snapshot copies.
// Updates never fail: this is pure bookkeeping on the hot path.
type ProgressTracker struct {
	mu         sync.Mutex
	total      int
	completed  int
	success    int
	failed     int
	skipped    int
	inProgress int
	metadata   map[string]any

	logInterval int
	logPrefix   string
	lastBucket  int
	onUpdate    func(domain.ProgressSnapshot)
}

// NewProgressTracker builds a tracker for total units of work. logInterval
// is a percentage step between progress log lines; onUpdate, when non-nil,
// receives a snapshot after every update (used to feed the run store).
func NewProgressTracker(total, logInterval int, logPrefix string, onUpdate func(domain.ProgressSnapshot)) *ProgressTracker {
	if logInterval <= 0 {
		logInterval = 10
	}
	return &ProgressTracker{
		total:       total,
		logInterval: logInterval,
		logPrefix:   logPrefix,
		metadata:    make(map[string]any),
		onUpdate:    onUpdate,
	}
}

// Update records one status change. in_progress only bumps the in-progress
// counter; terminal statuses retire an in-progress slot (when one exists),
// bump completed and the matching counter. Metadata merges last-write-wins.
func (t *ProgressTracker) Update(status ProgressStatus, metadata map[string]any) {
	t.mu.Lock()
	if status == ProgressInProgress {
		t.inProgress++
	} else {
		if t.inProgress > 0 {
			t.inProgress--
		}
		t.completed++
		switch status {
		case ProgressSuccess:
			t.success++
		case ProgressFailed:
			t.failed++
		case ProgressSkipped:
			t.skipped++
		}
	}
	maps.Copy(t.metadata, metadata)

	var logNow bool
	if t.total > 0 && status != ProgressInProgress {
		bucket := (t.completed * 100 / t.total) / t.logInterval
		if bucket > t.lastBucket {
			t.lastBucket = bucket
			logNow = true
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if logNow {
		slog.Info(t.logPrefix,
			slog.Int("completed", snap.Completed),
			slog.Int("total", snap.Total),
			slog.Int("success", snap.Success),
			slog.Int("failed", snap.Failed),
			slog.Int("skipped", snap.Skipped),
			slog.Int("in_progress", snap.InProgress),
		)
	}
	if t.onUpdate != nil {
		t.onUpdate(snap)
	}
}

// Snapshot returns a copy of the current counters and metadata.
func (t *ProgressTracker) Snapshot() domain.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *ProgressTracker) snapshotLocked() domain.ProgressSnapshot {
	meta := make(map[string]any, len(t.metadata))
	maps.Copy(meta, t.metadata)
	return domain.ProgressSnapshot{
		Total:      t.total,
		Completed:  t.completed,
		Success:    t.success,
		Failed:     t.failed,
		Skipped:    t.skipped,
		InProgress: t.inProgress,
		Metadata:   meta,
	}
}

// Reset zeroes every counter except total.
func (t *ProgressTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed, t.success, t.failed, t.skipped, t.inProgress = 0, 0, 0, 0, 0
	t.lastBucket = 0
	t.metadata = make(map[string]any)
}
