package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// ipFactor scales a per-subject budget into the shared per-address budget.
const ipFactor = 10

// Config holds the request budgets. A zero Max disables that budget.
type Config struct {
	EnableIPThrottle bool
	MaxOTPRequests   int
	OTPWindow        time.Duration
	MaxResetRequests int
	ResetWindow      time.Duration
}

// budget is one fixed-window allowance with its key namespace.
type budget struct {
	prefix string
	max    int64
	window time.Duration
}

func newBudget(prefix string, max int, window time.Duration) budget {
	if window <= 0 {
		window = time.Hour
	}
	return budget{prefix: prefix, max: int64(max), window: window}
}

func (b budget) subjectKey(subject string) string { return b.prefix + ":" + strings.ToLower(subject) }
func (b budget) addressKey(ip string) string      { return b.prefix + "i:" + ip }

// Limiter meters code and reset-link issuance with Redis counters.
type Limiter struct {
	rdb    redis.UniversalClient
	byIP   bool
	otp    budget
	resets budget
}

func New(rdb redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		rdb:    rdb,
		byIP:   cfg.EnableIPThrottle,
		otp:    newBudget("gco", cfg.MaxOTPRequests, cfg.OTPWindow),
		resets: newBudget("gcr", cfg.MaxResetRequests, cfg.ResetWindow),
	}
}

// AllowOTPRequest spends one unit of the one-time-code budget for identifier
// and, when enabled, for ip.
func (l *Limiter) AllowOTPRequest(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}
	return l.spend(ctx, l.otp, identifier, ip)
}

// AllowResetRequest spends one unit of the reset-link budget.
func (l *Limiter) AllowResetRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.spend(ctx, l.resets, email, ip)
}

// Attempts reports how much of identifier's one-time-code budget the
// current window has used.
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	n, err := l.rdb.Get(ctx, l.otp.subjectKey(identifier)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	case n < 0:
		return 0, nil
	}
	return int(n), nil
}

func (l *Limiter) spend(ctx context.Context, b budget, subject, ip string) error {
	if b.max <= 0 {
		return nil
	}
	n, err := l.hit(ctx, b.subjectKey(subject), b.window)
	if err != nil {
		return err
	}
	if n > b.max {
		return ErrRateLimited
	}
	if !l.byIP || ip == "" {
		return nil
	}
	n, err = l.hit(ctx, b.addressKey(ip), b.window)
	if err != nil {
		return err
	}
	if n > b.max*ipFactor {
		return ErrRateLimited
	}
	return nil
}

// hit increments key and starts its window on the first hit. INCR and
// EXPIRE NX share one round trip.
func (l *Limiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return incr.Val(), nil
}
