// Package redisstore is an account.Store backed by Redis. Each account is a
// JSON record with secondary index keys; writes use WATCH/MULTI so Save is
// atomic per account.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/redis/go-redis/v9"
)

const maxRetries = 4

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store implements account.Store on a redis.UniversalClient.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gc"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

func (s *Store) accountKey(id int64) string {
	return s.prefix + ":acct:" + strconv.FormatInt(id, 10)
}
func (s *Store) usernameKey(v string) string { return s.prefix + ":user:" + v }
func (s *Store) emailKey(v string) string    { return s.prefix + ":email:" + v }
func (s *Store) resetKey(v string) string    { return s.prefix + ":reset:" + v }
func (s *Store) verifyKey(v string) string   { return s.prefix + ":verify:" + v }
func (s *Store) lockedKey() string           { return s.prefix + ":locked" }
func (s *Store) seqKey() string              { return s.prefix + ":seq" }

func (s *Store) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	return s.load(ctx, s.redis, id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.findByIndex(ctx, s.usernameKey(username), func(a *account.Account) bool {
		return a.Username == username
	})
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findByIndex(ctx, s.emailKey(email), func(a *account.Account) bool {
		return a.Email == email
	})
}

func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (*account.Account, error) {
	a, err := s.FindByUsername(ctx, identifier)
	if !errors.Is(err, account.ErrNotFound) {
		return a, err
	}
	return s.FindByEmail(ctx, identifier)
}

func (s *Store) FindByResetToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.findByIndex(ctx, s.resetKey(digest), func(a *account.Account) bool {
		return a.PasswordResetToken != nil && *a.PasswordResetToken == digest
	})
}

func (s *Store) FindByVerificationToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.findByIndex(ctx, s.verifyKey(digest), func(a *account.Account) bool {
		return a.VerificationToken != nil && *a.VerificationToken == digest
	})
}

func (s *Store) FindLocked(ctx context.Context, now time.Time) ([]*account.Account, error) {
	ids, err := s.redis.ZRangeByScore(ctx, s.lockedKey(), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]*account.Account, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		a, err := s.load(ctx, s.redis, id)
		if errors.Is(err, account.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if a.IsLockedAt(now) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Create(ctx context.Context, acct *account.Account) (*account.Account, error) {
	created := acct.Clone()
	if created.ID == 0 {
		id, err := s.redis.Incr(ctx, s.seqKey()).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		created.ID = id
	}
	created.Version = 1

	key := s.accountKey(created.ID)
	userKey := s.usernameKey(created.Username)
	mailKey := s.emailKey(created.Email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key, userKey, mailKey).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return account.ErrDuplicate
			}
			data, err := encodeAccount(created)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				idVal := strconv.FormatInt(created.ID, 10)
				pipe.Set(ctx, key, data, 0)
				pipe.Set(ctx, userKey, idVal, 0)
				pipe.Set(ctx, mailKey, idVal, 0)
				s.writeSideIndexes(ctx, pipe, nil, created)
				return nil
			})
			return err
		}, key, userKey, mailKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, account.ErrDuplicate) {
				return nil, err
			}
			return nil, unavailable(err)
		}
		return created.Clone(), nil
	}
	return nil, account.ErrDuplicate
}

func (s *Store) Save(ctx context.Context, acct *account.Account) (*account.Account, error) {
	next := acct.Clone()
	key := s.accountKey(next.ID)
	userKey := s.usernameKey(next.Username)
	mailKey := s.emailKey(next.Email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.load(ctx, tx, next.ID)
			if err != nil {
				return err
			}
			if current.Version != next.Version {
				return account.ErrVersionConflict
			}
			if err := s.checkIndexOwner(ctx, tx, userKey, next.ID); err != nil {
				return err
			}
			if err := s.checkIndexOwner(ctx, tx, mailKey, next.ID); err != nil {
				return err
			}

			next.Version = current.Version + 1
			data, err := encodeAccount(next)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				idVal := strconv.FormatInt(next.ID, 10)
				pipe.Set(ctx, key, data, 0)
				if current.Username != next.Username {
					pipe.Del(ctx, s.usernameKey(current.Username))
					pipe.Set(ctx, userKey, idVal, 0)
				}
				if current.Email != next.Email {
					pipe.Del(ctx, s.emailKey(current.Email))
					pipe.Set(ctx, mailKey, idVal, 0)
				}
				s.writeSideIndexes(ctx, pipe, current, next)
				return nil
			})
			return err
		}, key, userKey, mailKey)

		if err == redis.TxFailedErr {
			// Another writer touched a watched key; the version check on the
			// next attempt decides whether this is a real conflict.
			next.Version = acct.Version
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, account.ErrNotFound),
				errors.Is(err, account.ErrVersionConflict),
				errors.Is(err, account.ErrDuplicate),
				errors.Is(err, account.ErrUnavailable):
				return nil, err
			default:
				return nil, unavailable(err)
			}
		}
		return next.Clone(), nil
	}
	return nil, account.ErrVersionConflict
}

// writeSideIndexes moves token and lock indexes from prev to next. prev is
// nil on create.
func (s *Store) writeSideIndexes(ctx context.Context, pipe redis.Pipeliner, prev, next *account.Account) {
	idVal := strconv.FormatInt(next.ID, 10)

	if prev != nil && prev.PasswordResetToken != nil &&
		(next.PasswordResetToken == nil || *next.PasswordResetToken != *prev.PasswordResetToken) {
		pipe.Del(ctx, s.resetKey(*prev.PasswordResetToken))
	}
	if next.PasswordResetToken != nil {
		pipe.Set(ctx, s.resetKey(*next.PasswordResetToken), idVal, 0)
	}

	if prev != nil && prev.VerificationToken != nil &&
		(next.VerificationToken == nil || *next.VerificationToken != *prev.VerificationToken) {
		pipe.Del(ctx, s.verifyKey(*prev.VerificationToken))
	}
	if next.VerificationToken != nil {
		pipe.Set(ctx, s.verifyKey(*next.VerificationToken), idVal, 0)
	}

	if next.AccountLockedUntil != nil {
		pipe.ZAdd(ctx, s.lockedKey(), redis.Z{Score: float64(next.AccountLockedUntil.UnixNano()), Member: idVal})
	} else {
		pipe.ZRem(ctx, s.lockedKey(), idVal)
	}
}

func (s *Store) checkIndexOwner(ctx context.Context, c getter, key string, id int64) error {
	owner, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return unavailable(err)
	}
	if owner != id {
		return account.ErrDuplicate
	}
	return nil
}

func (s *Store) findByIndex(ctx context.Context, key string, match func(*account.Account) bool) (*account.Account, error) {
	id, err := s.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, unavailable(err)
	}
	a, err := s.load(ctx, s.redis, id)
	if err != nil {
		return nil, err
	}
	if !match(a) {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (s *Store) load(ctx context.Context, c getter, id int64) (*account.Account, error) {
	data, err := c.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, unavailable(err)
	}
	a, err := decodeAccount(data)
	if err != nil {
		return nil, unavailable(err)
	}
	return a, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
}

var _ account.Store = (*Store)(nil)
