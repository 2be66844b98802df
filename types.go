package goCred

import (
	"io"
	"time"

	"github.com/MrEthical07/goCred/account"
	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	"go.uber.org/zap"
)

// Account is the durable credential record. See [account.Account].
type Account = account.Account

// Role is the coarse authorization role carried by an account.
type Role = account.Role

// Channel selects how a one-time code is delivered.
type Channel = account.Channel

const (
	RoleUser      = account.RoleUser
	RoleModerator = account.RoleModerator
	RoleAdmin     = account.RoleAdmin

	ChannelEmail = account.ChannelEmail
	ChannelSMS   = account.ChannelSMS
)

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, bool) { return account.ParseRole(s) }

// ParseChannel maps a case-insensitive channel name to a Channel.
func ParseChannel(s string) (Channel, bool) { return account.ParseChannel(s) }

// Identity is the authenticated principal. It is produced by
// [Engine.Authenticate] or [Engine.ParseIdentity] and passed explicitly to
// whatever needs it; the engine keeps no ambient current user.
type Identity struct {
	AccountID              int64
	Username               string
	Role                   Role
	PasswordChangeRequired bool
}

// AuthResult is returned by a successful [Engine.Authenticate].
type AuthResult struct {
	Account  *Account
	Identity Identity

	// Token is a signed identity token. Empty when Token.Enabled is false.
	Token       string
	TokenExpiry time.Time

	// PasswordChangeRequired is set when the stored digest is due for
	// rotation and was not upgraded on this login.
	PasswordChangeRequired bool

	// SecondFactor is "", "otp" or "totp".
	SecondFactor string
}

// TwoFactorSetup carries a new authenticator secret and its otpauth:// URI
// for QR rendering.
type TwoFactorSetup struct {
	Secret string
	URI    string
}

// RegisterRequest describes a new account.
type RegisterRequest struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	// Role defaults to Account.DefaultRole.
	Role Role
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// RotatingFileSink writes JSON lines to a time-rotated file.
type RotatingFileSink = internalaudit.RotatingFileSink

// ZapSink writes each event as a zap log entry.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewRotatingFileSink creates a [RotatingFileSink]. pattern uses strftime
// syntax, e.g. "/var/log/gocred/audit.%Y%m%d.log".
func NewRotatingFileSink(pattern string, rotation, maxAge time.Duration) (*RotatingFileSink, error) {
	return internalaudit.NewRotatingFileSink(pattern, rotation, maxAge)
}

// NewZapSink creates a [ZapSink] logging under the "audit" name.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// MultiSink fans every event out to each sink in order.
type MultiSink = internalaudit.MultiSink
