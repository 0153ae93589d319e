// Package alerts owns the alert lifecycle: create (re-raise), fetch, list
// and acknowledge, with each acknowledgement mirrored into a Task Log.
//
// A Manager is bound to one acting user and is cheap to build, so the HTTP
// layer makes one per request. It takes no locks: Acknowledge reads then
// writes without a transaction, so two concurrent acknowledgements of the
// same missing id can each synthesize their own record.
package alerts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/metrics"
	"github.com/hamed0406/alertledger/internal/repo"
)

type Manager struct {
	store   repo.AlertStore
	tasks   repo.TaskLog
	user    string
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Manager)

// WithClock overrides time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func New(store repo.AlertStore, tasks repo.TaskLog, user string, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		tasks: tasks,
		user:  user,
		log:   log,
		now:   time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) List(ctx context.Context) ([]domain.Alert, error) {
	return m.store.List(ctx)
}

func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	return m.store.Exists(ctx, id)
}

// Get reports a miss as (nil, false, nil). Only storage failures are errors.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Alert, bool, error) {
	a, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if a == nil {
		m.log.Error("alert not found", zap.String("alert_id", id))
		m.metrics.NotFound()
		return nil, false, nil
	}
	return a, true, nil
}

// Create upserts the alert keyed by id. Re-raising an existing alert
// overwrites its category, re-stamps the creation time and clears any
// acknowledgement.
func (m *Manager) Create(ctx context.Context, id, category string) (*domain.Alert, bool, error) {
	a := &domain.Alert{
		ID:              id,
		OriginalID:      id,
		Category:        category,
		CreatedAtMillis: domain.UnixMillis(m.now()),
	}
	out, err := m.store.Upsert(ctx, a)
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		m.log.Error("failed to create alert", zap.String("alert_id", id))
		return nil, false, nil
	}
	m.metrics.Created()
	m.log.Info("alert_created",
		zap.String("alert_id", id),
		zap.String("category", category),
		zap.Int64("created_ms", out.CreatedAtMillis),
	)
	return out, true, nil
}

// Acknowledge marks the alert as handled by the acting user and records
// the fact in the Task Log.
//
// When no record exists for id, a new one is stored under
// "{id}__{ackMillis}" with only its id set; the acknowledger fields stay
// nil on that record. The Task Log entry is written either way, keyed by
// the stored record's id.
//
// A Task Log failure is returned as *TaskLogError after the alert has
// already been persisted; nothing is rolled back.
func (m *Manager) Acknowledge(ctx context.Context, id string) (*domain.Alert, error) {
	a, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ackMillis := domain.UnixMillis(m.now())
	synthesized := a == nil
	if synthesized {
		a = &domain.Alert{ID: domain.SyntheticID(id, ackMillis)}
		if err := m.store.Insert(ctx, a); err != nil {
			return nil, err
		}
	} else {
		a.Acknowledge(m.user, ackMillis)
		out, err := m.store.Upsert(ctx, a)
		if err != nil {
			return nil, err
		}
		if out != nil {
			a = out
		}
	}
	m.metrics.Acknowledged(synthesized)

	if err := m.tasks.RecordAcknowledgement(ctx, a.ID, m.user, ackMillis); err != nil {
		m.metrics.TaskLogFailed()
		m.log.Error("task_log_write_failed",
			zap.String("alert_id", a.ID),
			zap.String("user", m.user),
			zap.Error(err),
		)
		return nil, &TaskLogError{AlertID: a.ID, Err: err}
	}

	m.log.Info("alert_acknowledged",
		zap.String("alert_id", a.ID),
		zap.String("requested_id", id),
		zap.String("user", m.user),
		zap.Bool("synthesized", synthesized),
		zap.Int64("ack_ms", ackMillis),
	)
	return a, nil
}
