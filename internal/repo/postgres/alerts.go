package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/repo"
)

const alertColumns = `id, original_id, category, unix_millis_created_time,
       acknowledged_by, unix_millis_acknowledged_time`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(&a.ID, &a.OriginalID, &a.Category, &a.CreatedAtMillis,
		&a.AcknowledgedBy, &a.AcknowledgedAtMillis)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM alerts WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("alert exists: %w", err)
	}
	return ok, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Alert, error) {
	a, err := scanAlert(s.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

func (s *Store) Upsert(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	const q = `
		INSERT INTO alerts (id, original_id, category, unix_millis_created_time,
		                    acknowledged_by, unix_millis_acknowledged_time)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id)
		DO UPDATE SET original_id=EXCLUDED.original_id,
		              category=EXCLUDED.category,
		              unix_millis_created_time=EXCLUDED.unix_millis_created_time,
		              acknowledged_by=EXCLUDED.acknowledged_by,
		              unix_millis_acknowledged_time=EXCLUDED.unix_millis_acknowledged_time
		RETURNING ` + alertColumns
	out, err := scanAlert(s.pool.QueryRow(ctx, q, a.ID, a.OriginalID, a.Category, a.CreatedAtMillis,
		a.AcknowledgedBy, a.AcknowledgedAtMillis))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("upsert alert: %w", err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, a *domain.Alert) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (id, original_id, category, unix_millis_created_time,
		                    acknowledged_by, unix_millis_acknowledged_time)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, a.OriginalID, a.Category, a.CreatedAtMillis, a.AcknowledgedBy, a.AcknowledgedAtMillis)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrDuplicate
	}
	return nil
}
