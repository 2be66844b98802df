package goCred

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/account"
	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/logging"
	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/jwt"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/password"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// dummyPassword is hashed once at build time; unknown identifiers are
// verified against its digest.
const dummyPassword = "gocred-dummy-password"

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     account.Store
	notifier  notify.Notifier
	hasher    password.Hasher
	logger    *zap.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store account.Store) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the outbound notifier. Defaults to a no-op.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	b.notifier = n
	return b
}

// WithHasher overrides the hasher derived from Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis enables the request throttle described by Config.Throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and collaborators and returns a ready
// Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	logger := b.logger
	if logger == nil {
		if cfg.Logging.Enabled {
			l, err := logging.New(logging.Config{
				Level:        cfg.Logging.Level,
				Dev:          cfg.Logging.Dev,
				FilePattern:  cfg.Logging.FilePattern,
				RotationTime: cfg.Logging.RotationTime,
				MaxAge:       cfg.Logging.MaxAge,
			})
			if err != nil {
				return nil, err
			}
			logger = l
		} else {
			logger = zap.NewNop()
		}
	}
	logger = logger.Named("gocred")

	hasher := b.hasher
	if hasher == nil {
		h, err := newHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
		hasher = h
	}
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	node, err := snowflake.NewNode(cfg.Account.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if b.notifier != nil {
		notifier = b.notifier
	}
	if cfg.Throttle.DeliveryPerSecond > 0 {
		notifier = notify.NewThrottled(notifier, cfg.Throttle.DeliveryPerSecond, cfg.Throttle.DeliveryBurst)
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		store:       b.store,
		hasher:      hasher,
		notifier:    notifier,
		logger:      logger,
		dummyDigest: dummy,
		ids:         node,
		now:         time.Now,
		lockout: lockout.New(lockout.Config{
			Threshold: cfg.Lockout.Threshold,
			Duration:  cfg.Lockout.Duration,
		}),
		metrics: newMetrics(cfg.Metrics),
	}
	if b.now != nil {
		engine.now = b.now
	}

	if cfg.Token.Enabled {
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Token.TTL,
			SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
			PublicKey:     cloneBytes(cfg.Token.PublicKey),
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
			KeyID:         cfg.Token.KeyID,
		})
		if err != nil {
			return nil, err
		}
		engine.tokens = jm
	}

	if b.redis != nil {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Throttle.EnableIPThrottle,
			MaxOTPRequests:   cfg.Throttle.MaxOTPRequests,
			OTPWindow:        cfg.Throttle.OTPWindow,
			MaxResetRequests: cfg.Throttle.MaxResetRequests,
			ResetWindow:      cfg.Throttle.ResetWindow,
		})
	}

	if cfg.Audit.Enabled {
		sink := b.auditSink
		if cfg.Audit.FilePattern != "" {
			fileSink, err := internalaudit.NewRotatingFileSink(cfg.Audit.FilePattern, cfg.Audit.Rotation, cfg.Audit.MaxAge)
			if err != nil {
				return nil, err
			}
			engine.auditFile = fileSink
			if sink == nil {
				sink = fileSink
			} else {
				sink = MultiSink{sink, fileSink}
			}
		}
		engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger,
			Now:        engine.now,
		}, sink)
	}

	b.built = true

	return engine, nil
}

func newHasher(cfg PasswordConfig) (password.Hasher, error) {
	switch cfg.Algorithm {
	case "bcrypt":
		return password.NewBcrypt(cfg.BcryptCost)
	default:
		ph, err := password.NewArgon2(password.Config{
			Memory:           cfg.Memory,
			Time:             cfg.Time,
			Parallelism:      cfg.Parallelism,
			SaltLength:       cfg.SaltLength,
			KeyLength:        cfg.KeyLength,
			MaxPasswordBytes: cfg.MaxPasswordBytes,
		})
		if err != nil {
			return nil, err
		}
		if !cfg.AcceptBcrypt {
			return ph, nil
		}
		legacy, err := password.NewBcrypt(cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		return password.NewChain(ph, legacy), nil
	}
}
