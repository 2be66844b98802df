package otp

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPConfig describes authenticator-app codes.
type TOTPConfig struct {
	Issuer string
	Period uint
	Skew   uint
	Digits int
}

var ErrTOTPConfig = errors.New("invalid totp config")

// Enrollment is a generated authenticator secret and its otpauth:// URI.
type Enrollment struct {
	Secret string
	URI    string
}

func (c TOTPConfig) digits() otp.Digits {
	if c.Digits == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

func (c TOTPConfig) period() uint {
	if c.Period == 0 {
		return 30
	}
	return c.Period
}

// Enroll generates a new base32 secret for accountName.
func Enroll(cfg TOTPConfig, accountName string) (Enrollment, error) {
	if cfg.Issuer == "" || accountName == "" {
		return Enrollment{}, ErrTOTPConfig
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      cfg.Issuer,
		AccountName: accountName,
		Period:      cfg.period(),
		Digits:      cfg.digits(),
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  20,
	})
	if err != nil {
		return Enrollment{}, err
	}
	return Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// VerifyTOTP checks code against the steps within the skew window around
// now. Steps at or before lastStep are rejected so an accepted code cannot
// be replayed. It returns the matched step.
func VerifyTOTP(cfg TOTPConfig, secret, code string, now time.Time, lastStep int64) (int64, bool) {
	if secret == "" || len(code) != int(cfg.digits()) {
		return 0, false
	}
	period := int64(cfg.period())
	opts := totp.ValidateOpts{
		Period:    cfg.period(),
		Skew:      0,
		Digits:    cfg.digits(),
		Algorithm: otp.AlgorithmSHA1,
	}

	skew := int64(cfg.Skew)
	for offset := -skew; offset <= skew; offset++ {
		at := now.Add(time.Duration(offset*period) * time.Second)
		step := at.Unix() / period
		if step <= lastStep {
			continue
		}
		expected, err := totp.GenerateCodeCustom(secret, at, opts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return step, true
		}
	}
	return 0, false
}
