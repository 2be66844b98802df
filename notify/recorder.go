package notify

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goCred/account"
)

// Kind names a notification type.
type Kind string

const (
	KindOTP               Kind = "otp"
	KindResetLink         Kind = "reset_link"
	KindResetConfirmation Kind = "reset_confirmation"
	KindPasswordChanged   Kind = "password_changed"
	KindVerification      Kind = "verification"
	KindWelcome           Kind = "welcome"
)

// Message is one recorded notification.
type Message struct {
	Kind      Kind
	AccountID int64
	Channel   account.Channel
	To        string
	Secret    string
	Expiry    time.Time
}

// Recorder keeps every notification in memory. It is safe for concurrent
// use and intended for tests and local development.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	// fail holds a forced error per kind.
	fail map[Kind]error
}

func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[Kind]error)}
}

// FailWith makes every subsequent notification of kind return err. A nil
// err clears the failure.
func (r *Recorder) FailWith(kind Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, kind)
		return
	}
	r.fail[kind] = err
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message of kind.
func (r *Recorder) Last(kind Kind) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Kind == kind {
			return r.messages[i], true
		}
	}
	return Message{}, false
}

// Count returns how many messages of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) record(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[m.Kind]; err != nil {
		return err
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *Recorder) SendOTP(_ context.Context, acct *account.Account, channel account.Channel, code string, expiry time.Time) error {
	to := acct.Email
	if channel == account.ChannelSMS {
		to = acct.PhoneNumber
	}
	return r.record(Message{Kind: KindOTP, AccountID: acct.ID, Channel: channel, To: to, Secret: code, Expiry: expiry})
}

func (r *Recorder) SendResetLink(_ context.Context, acct *account.Account, token string, expiry time.Time) error {
	return r.record(Message{Kind: KindResetLink, AccountID: acct.ID, Channel: account.ChannelEmail, To: acct.Email, Secret: token, Expiry: expiry})
}

func (r *Recorder) SendResetConfirmation(_ context.Context, acct *account.Account) error {
	return r.record(Message{Kind: KindResetConfirmation, AccountID: acct.ID, Channel: account.ChannelEmail, To: acct.Email})
}

func (r *Recorder) SendPasswordChanged(_ context.Context, acct *account.Account) error {
	return r.record(Message{Kind: KindPasswordChanged, AccountID: acct.ID, Channel: account.ChannelEmail, To: acct.Email})
}

func (r *Recorder) SendVerification(_ context.Context, acct *account.Account, token string, expiry time.Time) error {
	return r.record(Message{Kind: KindVerification, AccountID: acct.ID, Channel: account.ChannelEmail, To: acct.Email, Secret: token, Expiry: expiry})
}

func (r *Recorder) SendWelcome(_ context.Context, acct *account.Account) error {
	return r.record(Message{Kind: KindWelcome, AccountID: acct.ID, Channel: account.ChannelEmail, To: acct.Email})
}

var _ Notifier = (*Recorder)(nil)
