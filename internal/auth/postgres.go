package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"leafmarket.io/internal/ids"
)

// Postgres unique_violation; the unique index on lower(email) is the
// authoritative guard against duplicate registration.
const pgUniqueViolation = "23505"

var _ UserStore = (*PGUserStore)(nil)

// PGUserStore implements UserStore using PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

const userColumns = `id, email, name, role, password_hash, wallet_address, certifications, age_verified, status, created_at, updated_at`

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	certs, err := json.Marshal(u.Certifications)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into users(id, email, name, role, password_hash, wallet_address, certifications, age_verified, status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.WalletAddress, certs, u.AgeVerified, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PGUserStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1)`, email)
	return scanUser(row)
}

func (s *PGUserStore) FindByEmailAndRole(ctx context.Context, email, role string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1) and role=$2`, email, role)
	return scanUser(row)
}

func (s *PGUserStore) Disable(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set status=$1, updated_at=now() where id=$2`, StatusDisabled, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u     User
		certs []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.WalletAddress,
		&certs, &u.AgeVerified, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(certs) > 0 {
		_ = json.Unmarshal(certs, &u.Certifications)
	}
	return &u, nil
}
