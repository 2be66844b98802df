package goCred

import "github.com/MrEthical07/goCred/internal/security"

// SecurityReport summarizes the protections an [Engine] runs with and lists
// settings weaker than the recommended floor.
type SecurityReport = security.Report

// PasswordConfigReport is the hasher section of [SecurityReport].
type PasswordConfigReport = security.PasswordReport

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	cfg := e.config
	return security.BuildReport(security.ReportInput{
		Password: PasswordConfigReport{
			Algorithm:   cfg.Password.Algorithm,
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
			BcryptCost:  cfg.Password.BcryptCost,
			MinLength:   cfg.Password.MinLength,
		},
		AcceptBcrypt:        cfg.Password.AcceptBcrypt,
		LockoutThreshold:    cfg.Lockout.Threshold,
		LockoutDuration:     cfg.Lockout.Duration,
		OTPTTL:              cfg.OTP.TTL,
		OTPDigits:           cfg.OTP.Digits,
		AcceptTOTP:          cfg.OTP.AcceptTOTP,
		ResetTTL:            cfg.PasswordReset.TTL,
		VerificationTTL:     cfg.EmailVerification.TTL,
		TokensEnabled:       e.tokens != nil,
		SigningAlgorithm:    cfg.Token.SigningMethod,
		TokenTTL:            cfg.Token.TTL,
		RedisAttached:       e.limiter != nil,
		MaxOTPRequests:      cfg.Throttle.MaxOTPRequests,
		MaxResetRequests:    cfg.Throttle.MaxResetRequests,
		DeliveryPerSecond:   cfg.Throttle.DeliveryPerSecond,
		EnumerationDelayMax: cfg.Throttle.EnumerationDelayMax,
		AuditEnabled:        e.audit != nil,
	})
}
