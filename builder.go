package wellness

import (
	"errors"
	"time"

	"github.com/Dinesh17-Dev/wellness-session-app/internal/audit"
	"github.com/Dinesh17-Dev/wellness-session-app/jwt"
	"github.com/Dinesh17-Dev/wellness-session-app/password"
	"github.com/Dinesh17-Dev/wellness-session-app/store"
	"github.com/Dinesh17-Dev/wellness-session-app/store/redisstore"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	store  store.Store
	redis  redis.UniversalClient
	hasher password.Hasher

	auditSink AuditSink
	clock     func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the persistence backend. It takes precedence over WithRedis.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis backs the engine with a redisstore using Config.Store.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHasher overrides the hasher selected by Config.Password.Algorithm.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for document timestamps and token lifetimes.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := b.store
	if backend == nil {
		if b.redis == nil {
			return nil, errors.New("store or redis client required")
		}
		backend = redisstore.NewStore(b.redis, cfg.Store.RedisPrefix)
	}

	hasher := b.hasher
	if hasher == nil {
		h, err := password.New(cfg.Password.Algorithm, cfg.passwordConfig())
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           clock,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		users:    backend,
		sessions: backend,
		backend:  backend,
		hasher:   hasher,
		jwt:      jm,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     clock,
	}

	b.built = true
	return engine, nil
}
