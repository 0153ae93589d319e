package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/domain"
)

func (s *Store) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_acknowledgements (id, task_id, username, unix_millis_acknowledged_time)
		 VALUES ($1, $2, $3, $4)`,
		id, taskID, user, ackMillis)
	if err != nil {
		return fmt.Errorf("insert task acknowledgement: %w", err)
	}
	s.log.Debug("task_ack_recorded", zap.String("task_id", taskID), zap.String("user", user))
	return nil
}

func (s *Store) Acknowledgements(ctx context.Context, taskID string) ([]domain.Acknowledgement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, task_id, username, unix_millis_acknowledged_time, recorded_at
		   FROM task_acknowledgements
		  WHERE task_id = $1
		  ORDER BY recorded_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task acknowledgements: %w", err)
	}
	defer rows.Close()

	var out []domain.Acknowledgement
	for rows.Next() {
		var a domain.Acknowledgement
		if err := rows.Scan(&a.ID, &a.TaskID, &a.User, &a.AckMillis, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan task acknowledgement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
