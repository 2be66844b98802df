// Package sqlstore is an account.Store backed by PostgreSQL (lib/pq) or
// SQLite (modernc.org/sqlite) through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store implements account.Store with version-guarded UPDATEs.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the accounts table if not exists (idempotent).
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE id = ?`, id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE username = ?`, username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE email = ?`, email)
}

func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (*account.Account, error) {
	const q = `SELECT ` + columns + ` FROM accounts
  WHERE username = ? OR email = ?
  ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
  LIMIT 1`
	return s.getOne(ctx, q, identifier, identifier, identifier)
}

func (s *Store) FindByResetToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE password_reset_token = ?`, digest)
}

func (s *Store) FindByVerificationToken(ctx context.Context, digest string) (*account.Account, error) {
	return s.getOne(ctx, `SELECT `+columns+` FROM accounts WHERE verification_token = ?`, digest)
}

func (s *Store) FindLocked(ctx context.Context, now time.Time) ([]*account.Account, error) {
	const q = `SELECT ` + columns + ` FROM accounts
  WHERE locked_until IS NOT NULL AND locked_until > ?
  ORDER BY id`
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), now.UTC().UnixNano()); err != nil {
		return nil, unavailable(err)
	}
	out := make([]*account.Account, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toAccount())
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, acct *account.Account) (*account.Account, error) {
	if acct.ID == 0 {
		return nil, errors.New("sqlstore: account id required")
	}
	r := fromAccount(acct)
	r.Version = 1
	if _, err := s.db.NamedExecContext(ctx, insertQuery, r); err != nil {
		if isUniqueViolation(err) {
			return nil, account.ErrDuplicate
		}
		return nil, unavailable(err)
	}
	return r.toAccount(), nil
}

func (s *Store) Save(ctx context.Context, acct *account.Account) (*account.Account, error) {
	r := fromAccount(acct)
	res, err := s.db.NamedExecContext(ctx, updateQuery, r)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, account.ErrDuplicate
		}
		return nil, unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, unavailable(err)
	}
	if n == 0 {
		var count int
		if err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM accounts WHERE id = ?`), acct.ID); err != nil {
			return nil, unavailable(err)
		}
		if count == 0 {
			return nil, account.ErrNotFound
		}
		return nil, account.ErrVersionConflict
	}
	out := r.toAccount()
	out.Version = acct.Version + 1
	return out, nil
}

func (s *Store) getOne(ctx context.Context, q string, args ...any) (*account.Account, error) {
	var r row
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(q), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return r.toAccount(), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", account.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ account.Store = (*Store)(nil)
