package account

import (
	"strings"
	"time"
)

// Role is the coarse authorization role carried by an account.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Channel selects how a one-time code is delivered.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ParseChannel maps a case-insensitive channel name to a Channel.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelEmail:
		return ChannelEmail, true
	case ChannelSMS:
		return ChannelSMS, true
	}
	return "", false
}

// Account is the durable credential record. The engine holds a copy for the
// duration of one operation and never caches it across requests.
//
// OTPCode/OTPExpiry, PasswordResetToken/PasswordResetExpiry and
// VerificationToken/VerificationExpiry are each set and cleared together.
// PasswordResetToken and VerificationToken hold SHA-256 hex digests of the
// delivered tokens.
type Account struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      Role

	PasswordHash       string
	CredentialsCurrent bool

	Enabled           bool
	AccountNonExpired bool

	EmailVerified      bool
	PhoneVerified      bool
	PhoneNumber        string
	VerificationToken  *string
	VerificationExpiry *time.Time

	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	LastLogin           *time.Time

	TwoFactorEnabled bool
	OTPSecret        *string
	OTPCode          *string
	OTPExpiry        *time.Time
	TOTPLastStep     int64

	PasswordResetToken  *string
	PasswordResetExpiry *time.Time

	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.VerificationToken = cloneString(a.VerificationToken)
	out.VerificationExpiry = cloneTime(a.VerificationExpiry)
	out.AccountLockedUntil = cloneTime(a.AccountLockedUntil)
	out.LastLogin = cloneTime(a.LastLogin)
	out.OTPSecret = cloneString(a.OTPSecret)
	out.OTPCode = cloneString(a.OTPCode)
	out.OTPExpiry = cloneTime(a.OTPExpiry)
	out.PasswordResetToken = cloneString(a.PasswordResetToken)
	out.PasswordResetExpiry = cloneTime(a.PasswordResetExpiry)
	return &out
}

// DisplayName is the greeting name used in notifications.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.Username
}

// IsLockedAt reports whether the lock timestamp is strictly after now.
func (a *Account) IsLockedAt(now time.Time) bool {
	return a.AccountLockedUntil != nil && a.AccountLockedUntil.After(now)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
