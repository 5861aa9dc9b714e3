package auth

import (
	"context"
	"sync"
	"time"

	"leafmarket.io/internal/ids"
)

var _ UserStore = (*MemoryUserStore)(nil)

// MemoryUserStore is an in-process UserStore used by tests and DSN-less
// development runs. It enforces the same email uniqueness the Postgres
// store gets from its index.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := NormalizeEmail(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return ErrConflict
	}
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

	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

func (s *MemoryUserStore) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *MemoryUserStore) FindByEmailAndRole(ctx context.Context, email, role string) (*User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) Disable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = StatusDisabled
	u.UpdatedAt = time.Now().UTC()
	return nil
}
