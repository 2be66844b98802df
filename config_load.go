package goCred

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// LoadConfig decodes a TOML file over [DefaultConfig]. Keys absent from the
// file keep their defaults. Durations are written as strings ("15m").
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// LoadConfigEnv loads the given .env files (or ./.env when none are named,
// ignoring its absence), then reads GOCRED_CONFIG as an optional TOML file
// and finally applies GOCRED_* overrides.
func LoadConfigEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := defaultConfig()
	if path := os.Getenv("GOCRED_CONFIG"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type envReader struct {
	err error
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || r.err != nil {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (r *envReader) integer64(key string, dst *int64) {
	v, ok := os.LookupEnv(key)
	if !ok || r.err != nil {
		return
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || r.err != nil {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || r.err != nil {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}

func applyEnvOverrides(cfg *Config) error {
	var r envReader

	r.str("GOCRED_PASSWORD_ALGORITHM", &cfg.Password.Algorithm)
	r.integer("GOCRED_PASSWORD_MIN_LENGTH", &cfg.Password.MinLength)
	r.integer("GOCRED_PASSWORD_BCRYPT_COST", &cfg.Password.BcryptCost)
	r.boolean("GOCRED_PASSWORD_UPGRADE_ON_LOGIN", &cfg.Password.UpgradeOnLogin)
	r.boolean("GOCRED_PASSWORD_ACCEPT_BCRYPT", &cfg.Password.AcceptBcrypt)

	r.integer("GOCRED_LOCKOUT_THRESHOLD", &cfg.Lockout.Threshold)
	r.duration("GOCRED_LOCKOUT_DURATION", &cfg.Lockout.Duration)

	r.duration("GOCRED_OTP_TTL", &cfg.OTP.TTL)
	r.integer("GOCRED_OTP_DIGITS", &cfg.OTP.Digits)
	r.boolean("GOCRED_OTP_ACCEPT_TOTP", &cfg.OTP.AcceptTOTP)
	r.str("GOCRED_OTP_ISSUER", &cfg.OTP.Issuer)

	r.duration("GOCRED_RESET_TTL", &cfg.PasswordReset.TTL)
	r.duration("GOCRED_VERIFICATION_TTL", &cfg.EmailVerification.TTL)
	r.boolean("GOCRED_VERIFICATION_ON_REGISTER", &cfg.EmailVerification.SendOnRegister)

	r.str("GOCRED_DEFAULT_ROLE", &cfg.Account.DefaultRole)
	r.boolean("GOCRED_SEND_WELCOME", &cfg.Account.SendWelcome)
	r.integer64("GOCRED_NODE_ID", &cfg.Account.NodeID)

	r.boolean("GOCRED_TOKEN_ENABLED", &cfg.Token.Enabled)
	r.duration("GOCRED_TOKEN_TTL", &cfg.Token.TTL)
	r.str("GOCRED_TOKEN_SIGNING_METHOD", &cfg.Token.SigningMethod)
	r.str("GOCRED_TOKEN_ISSUER", &cfg.Token.Issuer)
	r.str("GOCRED_TOKEN_AUDIENCE", &cfg.Token.Audience)
	if secret, ok := os.LookupEnv("GOCRED_TOKEN_SECRET"); ok {
		cfg.Token.PrivateKey = []byte(secret)
	}

	r.boolean("GOCRED_THROTTLE_IP", &cfg.Throttle.EnableIPThrottle)
	r.integer("GOCRED_THROTTLE_OTP_MAX", &cfg.Throttle.MaxOTPRequests)
	r.duration("GOCRED_THROTTLE_OTP_WINDOW", &cfg.Throttle.OTPWindow)
	r.integer("GOCRED_THROTTLE_RESET_MAX", &cfg.Throttle.MaxResetRequests)
	r.duration("GOCRED_THROTTLE_RESET_WINDOW", &cfg.Throttle.ResetWindow)

	r.boolean("GOCRED_AUDIT_ENABLED", &cfg.Audit.Enabled)
	r.str("GOCRED_AUDIT_FILE", &cfg.Audit.FilePattern)
	r.boolean("GOCRED_METRICS_ENABLED", &cfg.Metrics.Enabled)

	r.str("GOCRED_LOG_LEVEL", &cfg.Logging.Level)
	r.boolean("GOCRED_LOG_DEV", &cfg.Logging.Dev)
	r.str("GOCRED_LOG_FILE", &cfg.Logging.FilePattern)
	if cfg.Logging.FilePattern != "" || os.Getenv("GOCRED_LOG_LEVEL") != "" {
		cfg.Logging.Enabled = true
	}

	return r.err
}
