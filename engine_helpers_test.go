package goCred

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store/memory"
)

const (
	testPassword = "Secret123!"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testConfig keeps argon2 at its floor so tests hash quickly.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Throttle.EnumerationDelayMin = 0
	cfg.Throttle.EnumerationDelayMax = 0
	return cfg
}

type testEnv struct {
	engine   *Engine
	store    *memory.Store
	notifier *notify.Recorder
	clock    *fakeClock
}

func newTestEnv(t *testing.T, cfg Config, opts ...func(*Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memory.New(),
		notifier: notify.NewRecorder(),
		clock:    newFakeClock(),
	}

	b := New().
		WithConfig(cfg).
		WithStore(env.store).
		WithNotifier(env.notifier).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

// register creates alice through the engine.
func (env *testEnv) register(t *testing.T) *Account {
	t.Helper()

	acct, err := env.engine.Register(context.Background(), RegisterRequest{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    testPassword,
		PhoneNumber: "+15550100",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return acct
}

func (env *testEnv) load(t *testing.T, id int64) *account.Account {
	t.Helper()

	acct, err := env.store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load account %d: %v", id, err)
	}
	return acct
}

func (env *testEnv) mutate(t *testing.T, id int64, fn func(*account.Account)) {
	t.Helper()

	acct := env.load(t, id)
	fn(acct)
	if _, err := env.store.Save(context.Background(), acct); err != nil {
		t.Fatalf("save account %d: %v", id, err)
	}
}

func (env *testEnv) lastSecret(t *testing.T, kind notify.Kind) string {
	t.Helper()

	msg, ok := env.notifier.Last(kind)
	if !ok {
		t.Fatalf("no %s message recorded", kind)
	}
	return msg.Secret
}
