package goCred

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/otp"
	"github.com/MrEthical07/goCred/internal/reset"
	"github.com/MrEthical07/goCred/jwt"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override what you need; [Builder.Build] validates the result.
type Config struct {
	Password          PasswordConfig          `toml:"password"`
	Lockout           LockoutConfig           `toml:"lockout"`
	OTP               OTPConfig               `toml:"otp"`
	PasswordReset     PasswordResetConfig     `toml:"password_reset"`
	EmailVerification EmailVerificationConfig `toml:"email_verification"`
	Account           AccountConfig           `toml:"account"`
	Token             TokenConfig             `toml:"token"`
	Throttle          ThrottleConfig          `toml:"throttle"`
	Audit             AuditConfig             `toml:"audit"`
	Metrics           MetricsConfig           `toml:"metrics"`
	Logging           LoggingConfig           `toml:"logging"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects and tunes the default hasher. It is ignored when
// a hasher is supplied through [Builder.WithHasher].
type PasswordConfig struct {
	// Algorithm is "argon2id" (default) or "bcrypt".
	Algorithm   string `toml:"algorithm"`
	Memory      uint32 `toml:"memory"` // in KB
	Time        uint32 `toml:"time"`
	Parallelism uint8  `toml:"parallelism"`
	SaltLength  uint32 `toml:"salt_length"`
	KeyLength   uint32 `toml:"key_length"`
	BcryptCost  int    `toml:"bcrypt_cost"`

	MinLength        int `toml:"min_length"`
	MaxPasswordBytes int `toml:"max_password_bytes"`

	// UpgradeOnLogin rehashes outdated digests after a successful login.
	// When false the account is flagged PasswordChangeRequired instead.
	UpgradeOnLogin bool `toml:"upgrade_on_login"`
	// AcceptBcrypt verifies legacy bcrypt digests while hashing with
	// argon2id.
	AcceptBcrypt bool `toml:"accept_bcrypt"`
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-attempt lock. A zero Threshold never
// locks; the counter still increments.
type LockoutConfig struct {
	Threshold int           `toml:"threshold"`
	Duration  time.Duration `toml:"duration"`
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls delivered one-time codes and authenticator-app codes.
type OTPConfig struct {
	TTL    time.Duration `toml:"ttl"`
	Digits int           `toml:"digits"`

	// AcceptTOTP lets Authenticate accept an authenticator-app code when
	// no delivered code matches.
	AcceptTOTP bool   `toml:"accept_totp"`
	Issuer     string `toml:"issuer"`
	Period     uint   `toml:"period"`
	Skew       uint   `toml:"skew"`
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

type PasswordResetConfig struct {
	TTL time.Duration `toml:"ttl"`
}

/*
====================================
EMAIL VERIFICATION CONFIG
====================================
*/

type EmailVerificationConfig struct {
	TTL time.Duration `toml:"ttl"`
	// SendOnRegister issues a verification token right after Register.
	SendOnRegister bool `toml:"send_on_register"`
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

type AccountConfig struct {
	DefaultRole string `toml:"default_role"`
	SendWelcome bool   `toml:"send_welcome"`
	// NodeID is the snowflake node used for account ids (0..1023).
	NodeID int64 `toml:"node_id"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls the identity token returned by Authenticate.
type TokenConfig struct {
	Enabled       bool          `toml:"enabled"`
	TTL           time.Duration `toml:"ttl"`
	SigningMethod string        `toml:"signing_method"` // "hs256" (default) or "ed25519"
	PrivateKey    []byte        `toml:"-"`
	PublicKey     []byte        `toml:"-"`
	Issuer        string        `toml:"issuer"`
	Audience      string        `toml:"audience"`
	Leeway        time.Duration `toml:"leeway"`
	KeyID         string        `toml:"key_id"`
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig bounds code and reset-link issuance. Budgets are enforced
// only when a Redis client is supplied; a zero Max disables that budget.
type ThrottleConfig struct {
	EnableIPThrottle bool          `toml:"enable_ip_throttle"`
	MaxOTPRequests   int           `toml:"max_otp_requests"`
	OTPWindow        time.Duration `toml:"otp_window"`
	MaxResetRequests int           `toml:"max_reset_requests"`
	ResetWindow      time.Duration `toml:"reset_window"`

	// Unknown-account request paths sleep a random duration in
	// [EnumerationDelayMin, EnumerationDelayMax).
	EnumerationDelayMin time.Duration `toml:"enumeration_delay_min"`
	EnumerationDelayMax time.Duration `toml:"enumeration_delay_max"`

	// DeliveryPerSecond wraps the notifier in a token bucket when > 0.
	DeliveryPerSecond float64 `toml:"delivery_per_second"`
	DeliveryBurst     int     `toml:"delivery_burst"`
}

/*
====================================
AUDIT / METRICS / LOGGING CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool `toml:"enabled"`
	BufferSize int  `toml:"buffer_size"`
	DropIfFull bool `toml:"drop_if_full"`
	// FilePattern adds a rotating JSON-lines sink when set.
	FilePattern string        `toml:"file_pattern"`
	Rotation    time.Duration `toml:"rotation"`
	MaxAge      time.Duration `toml:"max_age"`
}

type MetricsConfig struct {
	Enabled                 bool `toml:"enabled"`
	EnableLatencyHistograms bool `toml:"enable_latency_histograms"`
}

// LoggingConfig builds the engine logger when none is supplied through
// [Builder.WithLogger]. Disabled means zap.NewNop.
type LoggingConfig struct {
	Enabled      bool          `toml:"enabled"`
	Level        string        `toml:"level"`
	Dev          bool          `toml:"dev"`
	FilePattern  string        `toml:"file_pattern"`
	RotationTime time.Duration `toml:"rotation_time"`
	MaxAge       time.Duration `toml:"max_age"`
}

// DefaultConfig returns the production defaults: argon2id, a lock after 5
// failures for 15 minutes, 6-digit codes valid for 5 minutes, reset tokens
// valid for 1 hour and verification tokens for 24 hours.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Algorithm:        "argon2id",
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			BcryptCost:       12,
			MinLength:        8,
			MaxPasswordBytes: 1024,
			UpgradeOnLogin:   true,
		},
		Lockout: LockoutConfig{
			Threshold: lockout.DefaultThreshold,
			Duration:  lockout.DefaultDuration,
		},
		OTP: OTPConfig{
			TTL:    otp.DefaultTTL,
			Digits: otp.DefaultDigits,
			Issuer: "goCred",
			Period: 30,
			Skew:   1,
		},
		PasswordReset: PasswordResetConfig{
			TTL: reset.DefaultResetTTL,
		},
		EmailVerification: EmailVerificationConfig{
			TTL:            reset.DefaultVerificationTTL,
			SendOnRegister: true,
		},
		Account: AccountConfig{
			DefaultRole: string(account.RoleUser),
			SendWelcome: true,
			NodeID:      1,
		},
		Token: TokenConfig{
			Enabled:       false,
			TTL:           15 * time.Minute,
			SigningMethod: string(jwt.MethodHS256),
			Issuer:        "goCred",
		},
		Throttle: ThrottleConfig{
			EnableIPThrottle:    true,
			MaxOTPRequests:      5,
			OTPWindow:           15 * time.Minute,
			MaxResetRequests:    3,
			ResetWindow:         time.Hour,
			EnumerationDelayMin: 20 * time.Millisecond,
			EnumerationDelayMax: 40 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
			Rotation:   24 * time.Hour,
			MaxAge:     7 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Password
	switch c.Password.Algorithm {
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case "bcrypt":
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 4 and 31")
		}
	default:
		return errors.New("Password Algorithm must be 'argon2id' or 'bcrypt'")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxPasswordBytes < c.Password.MinLength {
		return errors.New("Password MaxPasswordBytes must be >= MinLength")
	}

	// Lockout
	if c.Lockout.Threshold < 0 {
		return errors.New("Lockout Threshold must be >= 0")
	}
	if c.Lockout.Threshold > 0 && c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0 when Threshold is set")
	}

	// OTP
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if strings.TrimSpace(c.OTP.Issuer) == "" {
		return errors.New("OTP Issuer must not be empty")
	}
	if c.OTP.Period == 0 {
		return errors.New("OTP Period must be > 0")
	}
	if c.OTP.Skew > 2 {
		return errors.New("OTP Skew must be <= 2")
	}

	// Password reset / verification
	if c.PasswordReset.TTL <= 0 {
		return errors.New("PasswordReset TTL must be > 0")
	}
	if c.EmailVerification.TTL <= 0 {
		return errors.New("EmailVerification TTL must be > 0")
	}

	// Account
	if _, ok := account.ParseRole(c.Account.DefaultRole); !ok {
		return errors.New("Account DefaultRole must be USER, MODERATOR or ADMIN")
	}
	if c.Account.NodeID < 0 || c.Account.NodeID > 1023 {
		return errors.New("Account NodeID must be between 0 and 1023")
	}

	// Token
	if c.Token.Enabled {
		if c.Token.TTL <= 0 {
			return errors.New("Token TTL must be > 0")
		}
		switch jwt.SigningMethod(c.Token.SigningMethod) {
		case jwt.MethodHS256:
			if len(c.Token.PrivateKey) < 32 {
				return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
			}
		case jwt.MethodEd25519:
			if len(c.Token.PrivateKey) == 0 {
				return errors.New("ed25519 requires a PrivateKey to sign identity tokens")
			}
		default:
			return errors.New("unsupported Token signing method")
		}
		if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
			return errors.New("Token Leeway must be between 0 and 2m")
		}
	}

	// Throttle
	if c.Throttle.MaxOTPRequests < 0 || c.Throttle.MaxResetRequests < 0 {
		return errors.New("Throttle budgets must be >= 0")
	}
	if c.Throttle.MaxOTPRequests > 0 && c.Throttle.OTPWindow <= 0 {
		return errors.New("Throttle OTPWindow must be > 0")
	}
	if c.Throttle.MaxResetRequests > 0 && c.Throttle.ResetWindow <= 0 {
		return errors.New("Throttle ResetWindow must be > 0")
	}
	if c.Throttle.EnumerationDelayMin < 0 || c.Throttle.EnumerationDelayMax < c.Throttle.EnumerationDelayMin {
		return errors.New("Throttle EnumerationDelay range is invalid")
	}
	if c.Throttle.DeliveryPerSecond < 0 {
		return errors.New("Throttle DeliveryPerSecond must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
