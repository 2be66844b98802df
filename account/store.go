package account

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account not found")
	// ErrVersionConflict is returned by Save when the stored version differs
	// from the version carried by the caller's copy.
	ErrVersionConflict = errors.New("account version conflict")
	// ErrDuplicate is returned by Create on a username or email collision.
	ErrDuplicate = errors.New("account already exists")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Store is the persistence boundary for account records.
//
// Implementations must make Save atomic per account: it succeeds only if the
// stored Version equals acct.Version, and the returned copy carries the
// incremented version. All lookups return copies.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByUsernameOrEmail prefers a username match over an email match.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error)
	FindByResetToken(ctx context.Context, digest string) (*Account, error)
	FindByVerificationToken(ctx context.Context, digest string) (*Account, error)
	// FindLocked lists accounts whose lock is still active at now.
	FindLocked(ctx context.Context, now time.Time) ([]*Account, error)
	Create(ctx context.Context, acct *Account) (*Account, error)
	Save(ctx context.Context, acct *Account) (*Account, error)
}
