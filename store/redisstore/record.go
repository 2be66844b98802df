package redisstore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/account"
)

const recordVersionV1 = 1

var errRecordVersion = errors.New("redisstore: unsupported record version")

// record is the persisted JSON shape. Field names are part of the storage
// format and must not change without bumping recordVersionV1.
type record struct {
	V                   int        `json:"v"`
	ID                  int64      `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name,omitempty"`
	LastName            string     `json:"last_name,omitempty"`
	Role                string     `json:"role"`
	PasswordHash        string     `json:"password_hash"`
	CredentialsCurrent  bool       `json:"credentials_current"`
	Enabled             bool       `json:"enabled"`
	AccountNonExpired   bool       `json:"account_non_expired"`
	EmailVerified       bool       `json:"email_verified"`
	PhoneVerified       bool       `json:"phone_verified"`
	PhoneNumber         string     `json:"phone_number,omitempty"`
	VerificationToken   *string    `json:"verification_token,omitempty"`
	VerificationExpiry  *time.Time `json:"verification_expiry,omitempty"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	TwoFactorEnabled    bool       `json:"two_factor_enabled"`
	OTPSecret           *string    `json:"otp_secret,omitempty"`
	OTPCode             *string    `json:"otp_code,omitempty"`
	OTPExpiry           *time.Time `json:"otp_expiry,omitempty"`
	TOTPLastStep        int64      `json:"totp_last_step,omitempty"`
	PasswordResetToken  *string    `json:"password_reset_token,omitempty"`
	PasswordResetExpiry *time.Time `json:"password_reset_expiry,omitempty"`
	Version             uint64     `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func encodeAccount(a *account.Account) ([]byte, error) {
	c := a.Clone()
	return json.Marshal(record{
		V:                   recordVersionV1,
		ID:                  c.ID,
		Username:            c.Username,
		Email:               c.Email,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Role:                string(c.Role),
		PasswordHash:        c.PasswordHash,
		CredentialsCurrent:  c.CredentialsCurrent,
		Enabled:             c.Enabled,
		AccountNonExpired:   c.AccountNonExpired,
		EmailVerified:       c.EmailVerified,
		PhoneVerified:       c.PhoneVerified,
		PhoneNumber:         c.PhoneNumber,
		VerificationToken:   c.VerificationToken,
		VerificationExpiry:  c.VerificationExpiry,
		FailedLoginAttempts: c.FailedLoginAttempts,
		LockedUntil:         c.AccountLockedUntil,
		LastLogin:           c.LastLogin,
		TwoFactorEnabled:    c.TwoFactorEnabled,
		OTPSecret:           c.OTPSecret,
		OTPCode:             c.OTPCode,
		OTPExpiry:           c.OTPExpiry,
		TOTPLastStep:        c.TOTPLastStep,
		PasswordResetToken:  c.PasswordResetToken,
		PasswordResetExpiry: c.PasswordResetExpiry,
		Version:             c.Version,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	})
}

func decodeAccount(data []byte) (*account.Account, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.V != recordVersionV1 {
		return nil, errRecordVersion
	}
	return &account.Account{
		ID:                  r.ID,
		Username:            r.Username,
		Email:               r.Email,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Role:                account.Role(r.Role),
		PasswordHash:        r.PasswordHash,
		CredentialsCurrent:  r.CredentialsCurrent,
		Enabled:             r.Enabled,
		AccountNonExpired:   r.AccountNonExpired,
		EmailVerified:       r.EmailVerified,
		PhoneVerified:       r.PhoneVerified,
		PhoneNumber:         r.PhoneNumber,
		VerificationToken:   r.VerificationToken,
		VerificationExpiry:  r.VerificationExpiry,
		FailedLoginAttempts: r.FailedLoginAttempts,
		AccountLockedUntil:  r.LockedUntil,
		LastLogin:           r.LastLogin,
		TwoFactorEnabled:    r.TwoFactorEnabled,
		OTPSecret:           r.OTPSecret,
		OTPCode:             r.OTPCode,
		OTPExpiry:           r.OTPExpiry,
		TOTPLastStep:        r.TOTPLastStep,
		PasswordResetToken:  r.PasswordResetToken,
		PasswordResetExpiry: r.PasswordResetExpiry,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}
