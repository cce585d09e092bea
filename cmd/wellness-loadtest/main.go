// Command wellness-loadtest drives an Engine against Redis (or an in-process
// miniredis) and prints per-phase throughput and latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
	"github.com/Dinesh17-Dev/wellness-session-app/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type userState struct {
	identity  wellness.Identity
	token     string
	sessionID string
}

func main() {
	var (
		users       = flag.Int("users", 200, "number of accounts to register")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "wl-load", "redis key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := wellness.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("loadtest-secret")
	cfg.Store.RedisPrefix = *prefix
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	// Minimum bcrypt cost: the run measures the store, not the hasher.
	hasher, err := password.NewBcrypt(password.Config{BcryptCost: 4})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build hasher: %v\n", err)
		os.Exit(1)
	}

	engine, err := wellness.New().WithConfig(cfg).WithRedis(client).WithHasher(hasher).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]userState, *users)
	runID := time.Now().UnixNano()
	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	for i := range states {
		email := fmt.Sprintf("load-%d-%d@example.com", runID, i)
		if err := engine.Register(ctx, wellness.RegisterRequest{Email: email, Password: "pw"}); err != nil {
			fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
			os.Exit(1)
		}
		token, err := engine.Login(ctx, wellness.LoginRequest{Email: email, Password: "pw"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		id := wellness.Identity{Email: email}
		sess, err := engine.SaveDraft(ctx, id, wellness.SaveDraftRequest{Title: "seed", Tags: []string{"load"}})
		if err != nil {
			fmt.Fprintf(os.Stderr, "save draft failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = userState{identity: id, token: token, sessionID: sess.ID}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := engine.Authenticate(ctx, states[r.Intn(len(states))].token)
		return err
	})
	saveStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, i int) error {
		s := &states[r.Intn(len(states))]
		status := "draft"
		if i%4 == 0 {
			status = "published"
		}
		_, err := engine.SaveDraft(ctx, s.identity, wellness.SaveDraftRequest{
			ID:     s.sessionID,
			Title:  fmt.Sprintf("revision %d", i),
			Tags:   []string{"load"},
			Status: status,
		})
		return err
	})
	listStats := runPhase(*ops/10+1, *concurrency, 104729, func(r *rand.Rand, _ int) error {
		_, err := engine.ListMine(ctx, states[r.Intn(len(states))].identity)
		return err
	})
	publishedStats := runPhase(*ops/100+1, *concurrency, 1299709, func(*rand.Rand, int) error {
		_, err := engine.ListPublished(ctx)
		return err
	})

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	printStats("save-draft", saveStats)
	printStats("list-mine", listStats)
	printStats("list-published", publishedStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: sessions_updated=%d authenticate_failures=%d internal_errors=%d\n",
		snap.Counters[wellness.MetricSessionUpdated],
		snap.Counters[wellness.MetricAuthenticateFailure],
		snap.Counters[wellness.MetricInternalError],
	)
}

// runPhase runs op ops times across concurrency workers.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
