// Package server parses the wellness command configuration and runs the HTTP
// API until its context is cancelled.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
	"github.com/Dinesh17-Dev/wellness-session-app/httpapi"
	"github.com/Dinesh17-Dev/wellness-session-app/internal/platform/config"
	"github.com/Dinesh17-Dev/wellness-session-app/metrics/export/prometheus"
	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"github.com/Dinesh17-Dev/wellness-session-app/store/mongostore"
	"github.com/Dinesh17-Dev/wellness-session-app/store/redisstore"
	"github.com/Dinesh17-Dev/wellness-session-app/store/sqlitestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Store backends selectable with WELLNESS_STORE.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds command configuration.
type Config struct {
	HTTPAddr            string        `env:"WELLNESS_HTTP_ADDR" envDefault:":5000"`
	Store               string        `env:"WELLNESS_STORE" envDefault:"redis"`
	RedisAddr           string        `env:"WELLNESS_REDIS_ADDR"`
	RedisPrefix         string        `env:"WELLNESS_REDIS_PREFIX" envDefault:"wl"`
	SQLitePath          string        `env:"WELLNESS_SQLITE_PATH" envDefault:"wellness.db"`
	MongoURL            string        `env:"MONGO_URL"`
	MongoDatabase       string        `env:"WELLNESS_MONGO_DB" envDefault:"wellness"`
	JWTSecret           string        `env:"WELLNESS_JWT_SECRET"`
	JWTTTL              time.Duration `env:"WELLNESS_JWT_TTL" envDefault:"24h"`
	PasswordAlgorithm   string        `env:"WELLNESS_PASSWORD_ALGORITHM" envDefault:"argon2id"`
	AuditEnabled        bool          `env:"WELLNESS_AUDIT_ENABLED"`
	MetricsEnabled      bool          `env:"WELLNESS_METRICS_ENABLED" envDefault:"true"`
	DistinctLoginErrors bool          `env:"WELLNESS_DISTINCT_LOGIN_ERRORS"`
	ShutdownTimeout     time.Duration `env:"WELLNESS_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config. Flags win.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Document store: redis, sqlite or mongo")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address; empty runs an in-process miniredis")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.MongoURL, "mongo-url", cfg.MongoURL, "MongoDB connection URI")
	fs.BoolVar(&cfg.AuditEnabled, "audit", cfg.AuditEnabled, "Write audit events as JSON lines to stdout")
	fs.BoolVar(&cfg.MetricsEnabled, "metrics", cfg.MetricsEnabled, "Serve Prometheus metrics on /metrics")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreRedis, StoreSQLite, StoreMongo:
	default:
		return Config{}, fmt.Errorf("unsupported store %q", cfg.Store)
	}
	if cfg.Store == StoreMongo && cfg.MongoURL == "" {
		return Config{}, errors.New("MONGO_URL is required for the mongo store")
	}
	return cfg, nil
}

// Run serves the API on cfg.HTTPAddr until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	return serve(ctx, cfg, ln)
}

func serve(ctx context.Context, cfg Config, ln net.Listener) error {
	backend, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer closeStore()

	engine, err := buildEngine(cfg, backend)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer engine.Close()

	opts := httpapi.Options{}
	if cfg.MetricsEnabled {
		opts.Metrics = prometheus.NewExporter(engine).Handler()
	}
	srv := &http.Server{
		Handler:           httpapi.NewHandler(engine, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (store=%s)", ln.Addr(), cfg.Store)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func buildEngine(cfg Config, backend store.Store) (*wellness.Engine, error) {
	wcfg := wellness.DefaultConfig()
	wcfg.JWT.AccessTTL = cfg.JWTTTL
	wcfg.Password.Algorithm = cfg.PasswordAlgorithm
	wcfg.Login.DistinctFailureMessages = cfg.DistinctLoginErrors
	wcfg.Store.RedisPrefix = cfg.RedisPrefix
	wcfg.Audit.Enabled = cfg.AuditEnabled
	wcfg.Metrics.Enabled = cfg.MetricsEnabled
	wcfg.Metrics.EnableLatencyHistograms = cfg.MetricsEnabled

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		log.Printf("WELLNESS_JWT_SECRET not set; tokens will not survive a restart")
	}
	wcfg.JWT.PrivateKey = secret

	b := wellness.New().WithConfig(wcfg).WithStore(backend)
	if cfg.AuditEnabled {
		b = b.WithAuditSink(wellness.NewJSONLinesSink(os.Stdout))
	}
	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}

func openStore(ctx context.Context, cfg Config) (store.Store, func(), error) {
	switch cfg.Store {
	case StoreSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, closeLogged("sqlite", s), nil
	case StoreMongo:
		s, err := mongostore.Open(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo store: %w", err)
		}
		return s, closeLogged("mongo", s), nil
	}

	addr := cfg.RedisAddr
	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		addr = mr.Addr()
		log.Printf("WELLNESS_REDIS_ADDR not set; using in-process miniredis, data is lost on exit")
	}

	s := redisstore.NewStore(redis.NewClient(&redis.Options{Addr: addr}), cfg.RedisPrefix)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		if mr != nil {
			mr.Close()
		}
		return nil, nil, fmt.Errorf("open redis store: %w", err)
	}
	closeRedis := closeLogged("redis", s)
	return s, func() {
		closeRedis()
		if mr != nil {
			mr.Close()
		}
	}, nil
}

func closeLogged(name string, s store.Store) func() {
	return func() {
		if err := s.Close(); err != nil {
			log.Printf("close %s store: %v", name, err)
		}
	}
}
