package security

import "time"

type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
	MinLength   int
}

type Report struct {
	Password               PasswordReport
	LegacyBcryptAccepted   bool
	LockoutActive          bool
	LockoutThreshold       int
	LockoutDuration        time.Duration
	OTPTTL                 time.Duration
	OTPDigits              int
	TOTPAccepted           bool
	ResetTTL               time.Duration
	VerificationTTL        time.Duration
	TokensEnabled          bool
	SigningAlgorithm       string
	TokenTTL               time.Duration
	RequestThrottleActive  bool
	DeliveryThrottleActive bool
	EnumerationPadding     bool
	AuditActive            bool
	Warnings               []string
}

type ReportInput struct {
	Password            PasswordReport
	AcceptBcrypt        bool
	LockoutThreshold    int
	LockoutDuration     time.Duration
	OTPTTL              time.Duration
	OTPDigits           int
	AcceptTOTP          bool
	ResetTTL            time.Duration
	VerificationTTL     time.Duration
	TokensEnabled       bool
	SigningAlgorithm    string
	TokenTTL            time.Duration
	RedisAttached       bool
	MaxOTPRequests      int
	MaxResetRequests    int
	DeliveryPerSecond   float64
	EnumerationDelayMax time.Duration
	AuditEnabled        bool
}

// Weak-setting thresholds reported as warnings.
const (
	minBcryptCost      = 10
	minArgon2MemoryKB  = 19 * 1024
	maxSafeResetTTL    = 24 * time.Hour
	maxSafeOTPTTL      = 15 * time.Minute
	minSafePasswordLen = 8
)

func BuildReport(input ReportInput) Report {
	lockout := input.LockoutThreshold > 0 && input.LockoutDuration > 0
	throttle := input.RedisAttached &&
		(input.MaxOTPRequests > 0 || input.MaxResetRequests > 0)

	r := Report{
		Password:               input.Password,
		LegacyBcryptAccepted:   input.AcceptBcrypt,
		LockoutActive:          lockout,
		LockoutThreshold:       input.LockoutThreshold,
		LockoutDuration:        input.LockoutDuration,
		OTPTTL:                 input.OTPTTL,
		OTPDigits:              input.OTPDigits,
		TOTPAccepted:           input.AcceptTOTP,
		ResetTTL:               input.ResetTTL,
		VerificationTTL:        input.VerificationTTL,
		TokensEnabled:          input.TokensEnabled,
		TokenTTL:               input.TokenTTL,
		RequestThrottleActive:  throttle,
		DeliveryThrottleActive: input.DeliveryPerSecond > 0,
		EnumerationPadding:     input.EnumerationDelayMax > 0,
		AuditActive:            input.AuditEnabled,
	}
	if input.TokensEnabled {
		r.SigningAlgorithm = input.SigningAlgorithm
	}
	r.Warnings = warnings(input, lockout, throttle)
	return r
}

func warnings(input ReportInput, lockout, throttle bool) []string {
	var out []string
	if !lockout {
		out = append(out, "failed-attempt lockout is disabled")
	}
	if input.Password.MinLength < minSafePasswordLen {
		out = append(out, "minimum password length is below 8")
	}
	switch input.Password.Algorithm {
	case "bcrypt":
		if input.Password.BcryptCost < minBcryptCost {
			out = append(out, "bcrypt cost is below 10")
		}
	default:
		if input.Password.Memory < minArgon2MemoryKB {
			out = append(out, "argon2id memory is below 19 MiB")
		}
	}
	if input.OTPTTL > maxSafeOTPTTL {
		out = append(out, "one-time code lifetime exceeds 15 minutes")
	}
	if input.ResetTTL > maxSafeResetTTL {
		out = append(out, "reset token lifetime exceeds 24 hours")
	}
	if !throttle {
		out = append(out, "code and reset requests are not throttled")
	}
	if input.EnumerationDelayMax <= 0 {
		out = append(out, "unknown-account responses are not padded")
	}
	return out
}
