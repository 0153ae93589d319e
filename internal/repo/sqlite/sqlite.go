// Package sqlite is an embedded AlertStore and TaskLog backed by
// modernc.org/sqlite, for single-node deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/alertledger/internal/domain"
	"github.com/hamed0406/alertledger/internal/repo"
)

var (
	_ repo.AlertStore            = (*Store)(nil)
	_ repo.TaskLog               = (*Store)(nil)
	_ repo.AcknowledgementReader = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// :memory: databases are per-connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id                            TEXT PRIMARY KEY,
			original_id                   TEXT NOT NULL DEFAULT '',
			category                      TEXT NOT NULL DEFAULT '',
			unix_millis_created_time      INTEGER NOT NULL DEFAULT 0,
			acknowledged_by               TEXT,
			unix_millis_acknowledged_time INTEGER
		);

		CREATE TABLE IF NOT EXISTS task_acknowledgements (
			id                            TEXT PRIMARY KEY,
			task_id                       TEXT NOT NULL,
			username                      TEXT NOT NULL,
			unix_millis_acknowledged_time INTEGER NOT NULL,
			recorded_at                   DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_task_acks_task ON task_acknowledgements(task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*domain.Alert, error) {
	var (
		a     domain.Alert
		by    sql.NullString
		ackMs sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.OriginalID, &a.Category, &a.CreatedAtMillis, &by, &ackMs); err != nil {
		return nil, err
	}
	if by.Valid && ackMs.Valid {
		a.Acknowledge(by.String, ackMs.Int64)
	}
	return &a, nil
}

const alertColumns = `id, original_id, category, unix_millis_created_time, acknowledged_by, unix_millis_acknowledged_time`

func (s *Store) List(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY rowid`)
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
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alerts WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("alert exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Alert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

func (s *Store) Upsert(ctx context.Context, a *domain.Alert) (*domain.Alert, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			original_id = excluded.original_id,
			category = excluded.category,
			unix_millis_created_time = excluded.unix_millis_created_time,
			acknowledged_by = excluded.acknowledged_by,
			unix_millis_acknowledged_time = excluded.unix_millis_acknowledged_time`,
		a.ID, a.OriginalID, a.Category, a.CreatedAtMillis, nullString(a.AcknowledgedBy), nullInt64(a.AcknowledgedAtMillis))
	if err != nil {
		return nil, fmt.Errorf("upsert alert: %w", err)
	}
	return s.Get(ctx, a.ID)
}

func (s *Store) Insert(ctx context.Context, a *domain.Alert) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		a.ID, a.OriginalID, a.Category, a.CreatedAtMillis, nullString(a.AcknowledgedBy), nullInt64(a.AcknowledgedAtMillis))
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	if n == 0 {
		return repo.ErrDuplicate
	}
	return nil
}

func (s *Store) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_acknowledgements (id, task_id, username, unix_millis_acknowledged_time, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, user, ackMillis, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert task acknowledgement: %w", err)
	}
	return nil
}

func (s *Store) Acknowledgements(ctx context.Context, taskID string) ([]domain.Acknowledgement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, username, unix_millis_acknowledged_time, recorded_at
		FROM task_acknowledgements
		WHERE task_id = ?
		ORDER BY rowid`, taskID)
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

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
