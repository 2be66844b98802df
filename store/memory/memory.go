// Package memory is an in-process account.Store guarded by a single mutex.
// It suits tests, single-node tools and examples.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/goCred/account"
)

// Store keeps accounts in maps keyed by id, username and email.
type Store struct {
	mu         sync.RWMutex
	byID       map[int64]*account.Account
	byUsername map[string]int64
	byEmail    map[string]int64
	nextID     int64
}

func New() *Store {
	return &Store{
		byID:       make(map[int64]*account.Account),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

func (s *Store) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, account.ErrNotFound
	}
	return s.get(id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return s.get(id)
}

func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byUsername[identifier]; ok {
		return s.get(id)
	}
	if id, ok := s.byEmail[identifier]; ok {
		return s.get(id)
	}
	return nil, account.ErrNotFound
}

func (s *Store) FindByResetToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.scanOne(ctx, func(a *account.Account) bool {
		return a.PasswordResetToken != nil && *a.PasswordResetToken == digest
	})
}

func (s *Store) FindByVerificationToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.scanOne(ctx, func(a *account.Account) bool {
		return a.VerificationToken != nil && *a.VerificationToken == digest
	})
}

func (s *Store) FindLocked(ctx context.Context, now time.Time) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0)
	for _, a := range s.byID {
		if a.IsLockedAt(now) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Create(ctx context.Context, acct *account.Account) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[acct.Username]; ok {
		return nil, account.ErrDuplicate
	}
	if _, ok := s.byEmail[acct.Email]; ok {
		return nil, account.ErrDuplicate
	}

	stored := acct.Clone()
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
	}
	if _, ok := s.byID[stored.ID]; ok {
		return nil, account.ErrDuplicate
	}
	stored.Version = 1

	s.byID[stored.ID] = stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID
	return stored.Clone(), nil
}

func (s *Store) Save(ctx context.Context, acct *account.Account) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[acct.ID]
	if !ok {
		return nil, account.ErrNotFound
	}
	if current.Version != acct.Version {
		return nil, account.ErrVersionConflict
	}
	if current.Username != acct.Username {
		if _, taken := s.byUsername[acct.Username]; taken {
			return nil, account.ErrDuplicate
		}
	}
	if current.Email != acct.Email {
		if _, taken := s.byEmail[acct.Email]; taken {
			return nil, account.ErrDuplicate
		}
	}

	stored := acct.Clone()
	stored.Version = current.Version + 1

	delete(s.byUsername, current.Username)
	delete(s.byEmail, current.Email)
	s.byID[stored.ID] = stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID
	return stored.Clone(), nil
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) get(id int64) (*account.Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) scanOne(ctx context.Context, match func(*account.Account) bool) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, account.ErrNotFound
}

var _ account.Store = (*Store)(nil)
