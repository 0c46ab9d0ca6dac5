package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const metricsFileName = "runtime_metrics.json"

// ExecStats tracks guard and runner outcomes.
type ExecStats struct {
	Total            int64            `json:"total"`
	Rejected         int64            `json:"rejected"`
	RejectedByReason map[string]int64 `json:"rejected_by_reason,omitempty"`
	Timeouts         int64            `json:"timeouts"`
	Truncations      int64            `json:"truncations"`
	SpawnErrors      int64            `json:"spawn_errors"`
	TotalLatencyMs   int64            `json:"total_latency_ms"`
	MaxLatencyMs     int64            `json:"max_latency_ms"`
	LastLatencyMs    int64            `json:"last_latency_ms"`
}

// RejectionRatio returns rejected/total in [0,1].
func (e ExecStats) RejectionRatio() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Rejected) / float64(e.Total)
}

// AvgLatencyMs returns average run latency in milliseconds over permitted runs.
func (e ExecStats) AvgLatencyMs() float64 {
	runs := e.Total - e.Rejected
	if runs <= 0 {
		return 0
	}
	return float64(e.TotalLatencyMs) / float64(runs)
}

// Snapshot contains aggregated execution metrics.
type Snapshot struct {
	UpdatedAt time.Time `json:"updated_at"`
	Exec      ExecStats `json:"exec"`
}

// HasData reports whether any executions were recorded.
func (s Snapshot) HasData() bool {
	return s.Exec.Total > 0
}

// Recorder records and persists execution metrics.
type Recorder struct {
	path string

	mu   sync.Mutex
	snap Snapshot
}

// NewRecorder creates a recorder rooted at <workspace>/state/runtime_metrics.json.
func NewRecorder(workspacePath string) *Recorder {
	return &Recorder{path: metricsPath(workspacePath)}
}

func metricsPath(workspacePath string) string {
	return filepath.Join(workspacePath, "state", metricsFileName)
}

// Snapshot returns the latest in-memory snapshot.
func (m *Recorder) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// RecordRejection counts a guard rejection and persists the snapshot.
func (m *Recorder) RecordRejection(reason string) (Snapshot, error) {
	if m == nil {
		return Snapshot{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.UpdatedAt = time.Now().UTC()
	m.snap.Exec.Total++
	m.snap.Exec.Rejected++
	if m.snap.Exec.RejectedByReason == nil {
		m.snap.Exec.RejectedByReason = make(map[string]int64)
	}
	m.snap.Exec.RejectedByReason[reason]++

	return m.snap, m.persistLocked()
}

// RecordRun counts a permitted run and persists the snapshot.
func (m *Recorder) RecordRun(duration time.Duration, timedOut, truncated, spawnError bool) (Snapshot, error) {
	if m == nil {
		return Snapshot{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	latencyMs := duration.Milliseconds()
	if latencyMs < 0 {
		latencyMs = 0
	}

	m.snap.UpdatedAt = time.Now().UTC()
	m.snap.Exec.Total++
	if timedOut {
		m.snap.Exec.Timeouts++
	}
	if truncated {
		m.snap.Exec.Truncations++
	}
	if spawnError {
		m.snap.Exec.SpawnErrors++
	}
	m.snap.Exec.TotalLatencyMs += latencyMs
	m.snap.Exec.LastLatencyMs = latencyMs
	if latencyMs > m.snap.Exec.MaxLatencyMs {
		m.snap.Exec.MaxLatencyMs = latencyMs
	}

	return m.snap, m.persistLocked()
}

func (m *Recorder) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	data, err := json.MarshalIndent(m.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot for a workspace. A missing file
// yields an empty snapshot, not an error.
func LoadSnapshot(workspacePath string) (Snapshot, error) {
	data, err := os.ReadFile(metricsPath(workspacePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read metrics: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return snap, nil
}
