package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/metrics"
	"github.com/hamed0406/alertledger/internal/repo"
)

const snapshotFile = "alerts.json"

type snapshot struct {
	WrittenAt time.Time      `json:"written_at"`
	Count     int            `json:"count"`
	Alerts    []domain.Alert `json:"alerts"`
}

// Snapshotter periodically dumps every alert into the cache directory so
// the last known state can be served or inspected without the database.
type Snapshotter struct {
	Logger   *zap.Logger
	Alerts   repo.AlertStore
	Dir      string
	Interval time.Duration
	Metrics  *metrics.Metrics
}

func NewSnapshotter(logger *zap.Logger, store repo.AlertStore, dir string, interval time.Duration, m *metrics.Metrics) *Snapshotter {
	if interval < 0 {
		interval = 0
	}
	return &Snapshotter{
		Logger:   logger,
		Alerts:   store,
		Dir:      dir,
		Interval: interval,
		Metrics:  m,
	}
}

// Path is the snapshot file location.
func (s *Snapshotter) Path() string { return filepath.Join(s.Dir, snapshotFile) }

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (s *Snapshotter) Run(ctx context.Context) {
	if s.Interval == 0 {
		s.Logger.Info("snapshotter_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("snapshotter_stopped")
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Snapshotter) runOnce(ctx context.Context) {
	if err := s.WriteOnce(ctx); err != nil {
		s.Logger.Warn("snapshot_error", zap.Error(err))
	}
}

// WriteOnce lists all alerts and replaces the snapshot file atomically.
func (s *Snapshotter) WriteOnce(ctx context.Context) error {
	all, err := s.Alerts.List(ctx)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	if all == nil {
		all = []domain.Alert{}
	}
	data, err := json.MarshalIndent(snapshot{
		WrittenAt: time.Now().UTC(),
		Count:     len(all),
		Alerts:    all,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, snapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	s.Metrics.SnapshotWritten()
	s.Logger.Debug("snapshot_written", zap.String("path", s.Path()), zap.Int("alerts", len(all)))
	return nil
}
