package audit

import (
	"context"
	"database/sql"
	"time"

	"leafmarket.io/internal/ids"
)

// RotationEntry is one append-only record of a signing-secret rotation.
// It carries the operator and timestamp, never the secret value.
type RotationEntry struct {
	ID         string    `json:"id"`
	Operator   string    `json:"operator"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store appends and lists rotation records. Entries are never updated or
// deleted.
type Store interface {
	Append(ctx context.Context, entry *RotationEntry) error
	List(ctx context.Context, limit int) ([]RotationEntry, error)
}

var _ Store = (*PGStore)(nil)

// PGStore persists rotation records in the secret_rotations table.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, entry *RotationEntry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into secret_rotations(id, operator, reason, occurred_at) values ($1, $2, $3, $4)`,
		entry.ID, entry.Operator, entry.Reason, entry.OccurredAt)
	return err
}

func (s *PGStore) List(ctx context.Context, limit int) ([]RotationEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, operator, reason, occurred_at from secret_rotations order by occurred_at desc limit $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RotationEntry
	for rows.Next() {
		var e RotationEntry
		if err := rows.Scan(&e.ID, &e.Operator, &e.Reason, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
