package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"time"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

// codeCapture keeps the last delivered code per account.
type codeCapture struct {
	notify.Nop
	codes sync.Map
}

func (c *codeCapture) SendOTP(_ context.Context, acct *account.Account, _ account.Channel, code string, _ time.Time) error {
	c.codes.Store(acct.ID, code)
	return nil
}

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (authenticate + otp)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gcl", "account key prefix")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, where, closeRedis, err := connectRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer closeRedis()
	fmt.Printf("using %s\n", where)

	store := redisstore.New(client, *prefix)
	codes := &codeCapture{}

	cfg := goCred.DefaultConfig()
	cfg.Lockout.Threshold = 0
	cfg.Throttle.EnumerationDelayMin = 0
	cfg.Throttle.EnumerationDelayMax = 0
	engine, err := goCred.New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(codes).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	names, err := seed(ctx, engine, store, *accounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authenticate := phase{name: "authenticate", ops: *ops, workers: *concurrency, fn: func(name string) error {
		_, err := engine.Authenticate(ctx, name, loadPassword, "")
		return err
	}}
	otp := phase{name: "otp", ops: *ops, workers: *concurrency, fn: func(name string) error {
		if err := engine.RequestOTP(ctx, name, goCred.ChannelEmail); err != nil {
			return err
		}
		acct, err := store.FindByUsername(ctx, name)
		if err != nil {
			return err
		}
		code, ok := codes.codes.Load(acct.ID)
		if !ok {
			return fmt.Errorf("no code for %s", name)
		}
		return engine.VerifyOTP(ctx, name, code.(string))
	}}

	fmt.Println("---- results ----")
	for _, p := range []phase{authenticate, otp} {
		p.run(names).print(p.name)
	}

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine latency buckets=%v sum=%s\n", snap.Histograms[goCred.MetricAuthenticateLatency], snap.LatencySum.Round(time.Millisecond))
	fmt.Printf("concurrent retries=%d\n", snap.Counters[goCred.MetricConcurrentRetry])
}

// connectRedis dials addr, falling back to $REDIS_ADDR and then to an
// in-process miniredis.
func connectRedis(addr string) (redis.UniversalClient, string, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return client, "redis at " + addr, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, "", nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return client, "miniredis at " + mr.Addr(), func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// seed hashes the password once and writes every account with that digest.
func seed(ctx context.Context, engine *goCred.Engine, store account.Store, n int) ([]string, error) {
	first, err := engine.Register(ctx, goCred.RegisterRequest{
		Username: "load-0",
		Email:    "load-0@example.com",
		Password: loadPassword,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, n)
	names[0] = first.Username
	for i := 1; i < n; i++ {
		acct := first.Clone()
		acct.ID = 0
		acct.Username = fmt.Sprintf("load-%d", i)
		acct.Email = fmt.Sprintf("load-%d@example.com", i)
		acct.VerificationToken = nil
		acct.VerificationExpiry = nil
		if _, err := store.Create(ctx, acct); err != nil {
			return nil, err
		}
		names[i] = acct.Username
	}
	return names, nil
}

// phase drives ops calls of fn over random account names from a fixed
// worker pool. Each worker keeps its own samples.
type phase struct {
	name    string
	ops     int
	workers int
	fn      func(name string) error
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
}

func (p phase) run(names []string) phaseStats {
	jobs := make(chan string, p.workers)
	go func() {
		defer close(jobs)
		for i := 0; i < p.ops; i++ {
			jobs <- names[rand.IntN(len(names))]
		}
	}()

	type result struct {
		samples  []time.Duration
		failures int
	}
	results := make([]result, p.workers)

	start := time.Now()
	var wg sync.WaitGroup
	for w := range results {
		wg.Add(1)
		go func(out *result) {
			defer wg.Done()
			for name := range jobs {
				t0 := time.Now()
				if err := p.fn(name); err != nil {
					out.failures++
				}
				out.samples = append(out.samples, time.Since(t0))
			}
		}(&results[w])
	}
	wg.Wait()

	stats := phaseStats{total: time.Since(start)}
	var all []time.Duration
	for _, r := range results {
		all = append(all, r.samples...)
		stats.failures += r.failures
	}
	if len(all) == 0 {
		return stats
	}
	slices.Sort(all)
	at := func(q int) time.Duration { return all[(len(all)-1)*q/100] }
	stats.ops = len(all)
	stats.p50, stats.p95, stats.p99 = at(50), at(95), at(99)
	return stats
}

func (s phaseStats) print(name string) {
	rate := 0.0
	if s.total > 0 {
		rate = float64(s.ops) / s.total.Seconds()
	}
	fmt.Printf("%-13s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name+":", s.ops, s.failures, s.total.Round(time.Millisecond), rate,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}
