package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/alertledger/internal/domain"
)

// ErrDuplicate is returned by Insert when the id is already taken.
var ErrDuplicate = errors.New("alert already exists")

// Ports (interfaces). The alert manager only sees these, never a concrete DB.
type AlertStore interface {
	List(ctx context.Context) ([]domain.Alert, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Get returns nil, nil if there's no record.
	Get(ctx context.Context, id string) (*domain.Alert, error)
	// Upsert inserts or overwrites the record keyed by a.ID and returns
	// what was stored.
	Upsert(ctx context.Context, a *domain.Alert) (*domain.Alert, error)
	Insert(ctx context.Context, a *domain.Alert) error
}

// TaskLog records which user acknowledged which task.
type TaskLog interface {
	RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error
}

// AcknowledgementReader is implemented by task logs that can be read back.
type AcknowledgementReader interface {
	Acknowledgements(ctx context.Context, taskID string) ([]domain.Acknowledgement, error)
}
