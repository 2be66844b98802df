package sqlstore

import (
	"database/sql"
	"time"

	"github.com/MrEthical07/goCred/account"
)

type row struct {
	ID                  int64          `db:"id"`
	Username            string         `db:"username"`
	Email               string         `db:"email"`
	FirstName           string         `db:"first_name"`
	LastName            string         `db:"last_name"`
	Role                string         `db:"role"`
	PasswordHash        string         `db:"password_hash"`
	CredentialsCurrent  bool           `db:"credentials_current"`
	Enabled             bool           `db:"enabled"`
	AccountNonExpired   bool           `db:"account_non_expired"`
	EmailVerified       bool           `db:"email_verified"`
	PhoneVerified       bool           `db:"phone_verified"`
	PhoneNumber         string         `db:"phone_number"`
	VerificationToken   sql.NullString `db:"verification_token"`
	VerificationExpiry  sql.NullInt64  `db:"verification_expiry"`
	FailedLoginAttempts int            `db:"failed_login_attempts"`
	LockedUntil         sql.NullInt64  `db:"locked_until"`
	LastLogin           sql.NullInt64  `db:"last_login"`
	TwoFactorEnabled    bool           `db:"two_factor_enabled"`
	OTPSecret           sql.NullString `db:"otp_secret"`
	OTPCode             sql.NullString `db:"otp_code"`
	OTPExpiry           sql.NullInt64  `db:"otp_expiry"`
	TOTPLastStep        int64          `db:"totp_last_step"`
	PasswordResetToken  sql.NullString `db:"password_reset_token"`
	PasswordResetExpiry sql.NullInt64  `db:"password_reset_expiry"`
	Version             int64          `db:"version"`
	CreatedAt           int64          `db:"created_at"`
	UpdatedAt           int64          `db:"updated_at"`
}

func fromAccount(a *account.Account) row {
	return row{
		ID:                  a.ID,
		Username:            a.Username,
		Email:               a.Email,
		FirstName:           a.FirstName,
		LastName:            a.LastName,
		Role:                string(a.Role),
		PasswordHash:        a.PasswordHash,
		CredentialsCurrent:  a.CredentialsCurrent,
		Enabled:             a.Enabled,
		AccountNonExpired:   a.AccountNonExpired,
		EmailVerified:       a.EmailVerified,
		PhoneVerified:       a.PhoneVerified,
		PhoneNumber:         a.PhoneNumber,
		VerificationToken:   nullString(a.VerificationToken),
		VerificationExpiry:  nullTime(a.VerificationExpiry),
		FailedLoginAttempts: a.FailedLoginAttempts,
		LockedUntil:         nullTime(a.AccountLockedUntil),
		LastLogin:           nullTime(a.LastLogin),
		TwoFactorEnabled:    a.TwoFactorEnabled,
		OTPSecret:           nullString(a.OTPSecret),
		OTPCode:             nullString(a.OTPCode),
		OTPExpiry:           nullTime(a.OTPExpiry),
		TOTPLastStep:        a.TOTPLastStep,
		PasswordResetToken:  nullString(a.PasswordResetToken),
		PasswordResetExpiry: nullTime(a.PasswordResetExpiry),
		Version:             int64(a.Version),
		CreatedAt:           a.CreatedAt.UTC().UnixNano(),
		UpdatedAt:           a.UpdatedAt.UTC().UnixNano(),
	}
}

func (r *row) toAccount() *account.Account {
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
		VerificationToken:   stringPtr(r.VerificationToken),
		VerificationExpiry:  timePtr(r.VerificationExpiry),
		FailedLoginAttempts: r.FailedLoginAttempts,
		AccountLockedUntil:  timePtr(r.LockedUntil),
		LastLogin:           timePtr(r.LastLogin),
		TwoFactorEnabled:    r.TwoFactorEnabled,
		OTPSecret:           stringPtr(r.OTPSecret),
		OTPCode:             stringPtr(r.OTPCode),
		OTPExpiry:           timePtr(r.OTPExpiry),
		TOTPLastStep:        r.TOTPLastStep,
		PasswordResetToken:  stringPtr(r.PasswordResetToken),
		PasswordResetExpiry: timePtr(r.PasswordResetExpiry),
		Version:             uint64(r.Version),
		CreatedAt:           time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:           time.Unix(0, r.UpdatedAt).UTC(),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixNano(), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return account.StringPtr(ns.String)
}

func timePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	return account.TimePtr(time.Unix(0, ni.Int64).UTC())
}
