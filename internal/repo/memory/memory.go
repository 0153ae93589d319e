package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/repo"
)

type Store struct {
	mu     sync.RWMutex
	alerts map[string]*domain.Alert
	order  []string // insertion order, used by List
	acks   []domain.Acknowledgement
}

func New() *Store {
	return &Store{
		alerts: make(map[string]*domain.Alert),
		order:  make([]string, 0, 128),
	}
}

// ---- AlertStore ----

func (m *Store) List(ctx context.Context) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.alerts[id].Clone())
	}
	return out, nil
}

func (m *Store) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.alerts[id]
	return ok, nil
}

func (m *Store) Get(ctx context.Context, id string) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	c := a.Clone()
	return &c, nil
}

func (m *Store) Upsert(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	c := a.Clone()
	m.alerts[a.ID] = &c
	out := c.Clone()
	return &out, nil
}

func (m *Store) Insert(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; ok {
		return repo.ErrDuplicate
	}
	c := a.Clone()
	m.alerts[a.ID] = &c
	m.order = append(m.order, a.ID)
	return nil
}

// ---- TaskLog ----

func (m *Store) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, domain.Acknowledgement{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		User:       user,
		AckMillis:  ackMillis,
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

func (m *Store) Acknowledgements(ctx context.Context, taskID string) ([]domain.Acknowledgement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Acknowledgement
	for _, a := range m.acks {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

var (
	_ repo.AlertStore            = (*Store)(nil)
	_ repo.TaskLog               = (*Store)(nil)
	_ repo.AcknowledgementReader = (*Store)(nil)
)
