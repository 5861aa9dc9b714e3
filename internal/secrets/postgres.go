package secrets

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"leafmarket.io/internal/ids"
)

const (
	slotCurrent  = "current"
	slotPrevious = "previous"
)

var _ Provider = (*PGProvider)(nil)

// PGProvider keeps signing secret material in the auth_secrets table and
// records every rotation in the append-only secret_rotations table. Each
// process caches the pair it last observed; a verifier that has not yet
// reloaded simply fails tokens signed with the very newest secret.
type PGProvider struct {
	db  *sql.DB
	now func() time.Time

	mu        sync.RWMutex
	current   []byte
	previous  []byte
	rotatedAt time.Time
}

// NewPGProvider constructs the provider and loads the stored secret pair.
// A store with no secret yet is not an error; Current reports
// ErrNotConfigured until the first rotation seeds it.
func NewPGProvider(ctx context.Context, db *sql.DB) (*PGProvider, error) {
	p := &PGProvider{db: db, now: time.Now}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload refreshes the cached secret pair from the store.
func (p *PGProvider) Reload(ctx context.Context) error {
	rows, err := p.db.QueryContext(ctx,
		`select slot, value, rotated_at from auth_secrets where slot in ($1, $2)`,
		slotCurrent, slotPrevious)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current, previous []byte
	var rotatedAt time.Time
	for rows.Next() {
		var (
			slot  string
			value string
			ts    time.Time
		)
		if err := rows.Scan(&slot, &value, &ts); err != nil {
			return err
		}
		switch slot {
		case slotCurrent:
			current = []byte(value)
			rotatedAt = ts
		case slotPrevious:
			previous = []byte(value)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = current
	p.previous = previous
	p.rotatedAt = rotatedAt
	p.mu.Unlock()
	return nil
}

func (p *PGProvider) Current() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.current) == 0 {
		return nil, ErrNotConfigured
	}
	return p.current, nil
}

func (p *PGProvider) Previous() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.previous
}

// RotatedAt returns the timestamp of the last observed rotation.
func (p *PGProvider) RotatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rotatedAt
}

// Rotate generates fresh material and shifts current to previous in a
// single transaction, appending the audit row in the same transaction.
// Either every row advances or none does. The row lock on the current slot
// serializes concurrent rotations.
func (p *PGProvider) Rotate(ctx context.Context, operator, reason string) (Rotation, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return Rotation{}, ErrOperatorRequired
	}

	next, err := NewMaterial()
	if err != nil {
		return Rotation{}, err
	}
	now := p.now().UTC()
	rotation := Rotation{
		ID:         ids.New(),
		Operator:   operator,
		Reason:     strings.TrimSpace(reason),
		OccurredAt: now,
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Rotation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		`select value from auth_secrets where slot = $1 for update`, slotCurrent).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Rotation{}, err
	}

	if current != "" {
		if _, err := tx.ExecContext(ctx,
			`insert into auth_secrets(slot, value, rotated_at) values ($1, $2, $3)
			 on conflict (slot) do update set value = excluded.value, rotated_at = excluded.rotated_at`,
			slotPrevious, current, now); err != nil {
			return Rotation{}, err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`insert into auth_secrets(slot, value, rotated_at) values ($1, $2, $3)
		 on conflict (slot) do update set value = excluded.value, rotated_at = excluded.rotated_at`,
		slotCurrent, next, now); err != nil {
		return Rotation{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into secret_rotations(id, operator, reason, occurred_at) values ($1, $2, $3, $4)`,
		rotation.ID, rotation.Operator, rotation.Reason, rotation.OccurredAt); err != nil {
		return Rotation{}, err
	}
	if err := tx.Commit(); err != nil {
		return Rotation{}, err
	}

	p.mu.Lock()
	if current != "" {
		p.previous = []byte(current)
	}
	p.current = []byte(next)
	p.rotatedAt = now
	p.mu.Unlock()

	return rotation, nil
}
