package goIdentity

import (
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goIdentity/cryptobox"
	"github.com/MrEthical07/goIdentity/password"
)

// Builder assembles an [Engine]. Dependencies not supplied get safe
// defaults: an in-memory store, in-memory OTP codes, a no-op notifier, and
// the system clock. A Builder is single-use.
type Builder struct {
	config    Config
	store     Store
	redis     *redis.Client
	notifier  Notifier
	clock     Clock
	auditSink AuditSink

	built bool
}

// New returns a Builder carrying the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore injects a credential store. When omitted, Build creates a fresh
// [MemoryStore] encrypting with the configured (or generated) key.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithRedis switches the OTP code store to the Redis backend. Pending
// authentication and the activity ledger stay in process either way.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithNotifier injects the out-of-band code delivery capability.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithClock injects a time source, for deterministic expiry in tests.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink injects the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. Missing crypto or
// signing keys are generated on the spot with a logged warning; generated
// keys do not survive restarts and are for development only.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	if cfg.Crypto.Key == nil {
		key, err := cryptobox.GenerateKey()
		if err != nil {
			return nil, err
		}
		cfg.Crypto.Key = key
		log.Println("goIdentity: no encryption key configured, generated a development key; stored data will not survive restart")
	}
	if cfg.Token.SigningKey == nil {
		key, err := cryptobox.GenerateKey()
		if err != nil {
			return nil, err
		}
		cfg.Token.SigningKey = key
		log.Println("goIdentity: no token signing key configured, generated a development key; issued tokens will not survive restart")
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		box, err := cryptobox.New(cfg.Crypto.Key)
		if err != nil {
			return nil, err
		}
		store = NewMemoryStore(box)
	}

	var codes otpCodeStore
	if b.redis != nil {
		codes = newRedisOTPStore(b.redis, clock)
	} else {
		codes = newMemoryOTPStore(clock)
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	engine := &Engine{
		config:   cfg,
		store:    store,
		otp:      newOTPManager(cfg.OTP, codes, clock),
		pending:  newPendingAuthStore(clock),
		ledger:   newActivityLedger(),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		hasher:   hasher,
		tokens:   newTokenManager(cfg.Token, clock),
		notifier: notifier,
		clock:    clock,
	}

	b.built = true
	return engine, nil
}
