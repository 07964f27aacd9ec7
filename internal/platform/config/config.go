package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted for provider and claim persistence.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config is the full service configuration. It is loaded from an optional
// YAML file and then overlaid with environment variables.
type Config struct {
	Server     Server      `yaml:"server"`
	Log        Log         `yaml:"log"`
	Pagination Pagination  `yaml:"pagination"`
	Providers  Persistence `yaml:"providers"`
	Claims     Persistence `yaml:"claims"`
	Postgres   Postgres    `yaml:"postgres"`
	Mongo      Mongo       `yaml:"mongo"`
	Redis      Redis       `yaml:"redis"`
	Kafka      Kafka       `yaml:"kafka"`
	Vault      Vault       `yaml:"vault"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Pagination bounds provider listing.
type Pagination struct {
	DefaultItemsPerPage int `yaml:"default_items_per_page"`
	MaxItemsPerPage     int `yaml:"max_items_per_page"`
}

// Persistence selects the active store and its cache.
type Persistence struct {
	Backend string `yaml:"backend"`
	Cache   Cache  `yaml:"cache"`
}

type Cache struct {
	Enabled     bool          `yaml:"enabled"`
	MaxEntries  int64         `yaml:"max_entries"`
	TTL         time.Duration `yaml:"ttl"`
	BufferItems int64         `yaml:"buffer_items"`
}

type Postgres struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type Mongo struct {
	URL        string        `yaml:"url"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Redis configures the user directory projection. KeyPrefix namespaces every
// key the projection writes.
type Redis struct {
	URL          string        `yaml:"url"`
	KeyPrefix    string        `yaml:"key_prefix"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Kafka struct {
	Brokers         []string `yaml:"brokers"`
	UserEventsTopic string   `yaml:"user_events_topic"`
	AuditTopic      string   `yaml:"audit_topic"`
	ConsumerGroup   string   `yaml:"consumer_group"`
	CreateTopics    bool     `yaml:"create_topics"`
}

// Vault configures the secret store. Key is a 32-byte key, hex encoded.
type Vault struct {
	Backend    string `yaml:"backend"`
	Key        string `yaml:"key"`
	KeyVersion string `yaml:"key_version"`
}

// Default returns a configuration that runs entirely in memory.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "idvmgt",
			JWTAudience:     "idvmgt-api",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Pagination: Pagination{
			DefaultItemsPerPage: 15,
			MaxItemsPerPage:     100,
		},
		Providers: Persistence{
			Backend: BackendMemory,
			Cache:   Cache{Enabled: true, MaxEntries: 10_000, TTL: 15 * time.Minute, BufferItems: 64},
		},
		Claims: Persistence{
			Backend: BackendMemory,
			Cache:   Cache{Enabled: true, MaxEntries: 100_000, TTL: 15 * time.Minute, BufferItems: 64},
		},
		Postgres: Postgres{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Mongo: Mongo{
			Database:   "idv",
			Collection: "idv_claims",
			Timeout:    10 * time.Second,
		},
		Redis: Redis{
			KeyPrefix:    "idv",
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			UserEventsTopic: "idv.user-events",
			AuditTopic:      "idv.audit",
			ConsumerGroup:   "idvmgt",
		},
		Vault: Vault{Backend: BackendMemory, KeyVersion: "v1"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return Load(os.Getenv("IDVMGT_CONFIG"))
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "IDVMGT_ADDR")
	setString(&cfg.Server.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Providers.Backend, "IDVP_BACKEND")
	setString(&cfg.Claims.Backend, "IDV_CLAIM_BACKEND")
	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Mongo.URL, "MONGO_URL")
	setString(&cfg.Mongo.Database, "MONGO_DATABASE")
	setString(&cfg.Mongo.Collection, "MONGO_COLLECTION")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.KeyPrefix, "REDIS_KEY_PREFIX")
	setString(&cfg.Vault.Backend, "SECRET_VAULT_BACKEND")
	setString(&cfg.Vault.Key, "SECRET_VAULT_KEY")
	setString(&cfg.Kafka.UserEventsTopic, "KAFKA_USER_EVENTS_TOPIC")
	setString(&cfg.Kafka.AuditTopic, "KAFKA_AUDIT_TOPIC")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("IDVP_DEFAULT_ITEMS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pagination.DefaultItemsPerPage = n
		}
	}
	if v := os.Getenv("IDVP_MAX_ITEMS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pagination.MaxItemsPerPage = n
		}
	}
}

// Validate rejects configurations that cannot start.
func (c Config) Validate() error {
	if c.Pagination.DefaultItemsPerPage <= 0 || c.Pagination.MaxItemsPerPage <= 0 {
		return fmt.Errorf("pagination sizes must be positive")
	}
	if c.Pagination.DefaultItemsPerPage > c.Pagination.MaxItemsPerPage {
		return fmt.Errorf("default_items_per_page %d exceeds max_items_per_page %d",
			c.Pagination.DefaultItemsPerPage, c.Pagination.MaxItemsPerPage)
	}
	switch c.Providers.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("unsupported provider backend %q", c.Providers.Backend)
	}
	switch c.Claims.Backend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unsupported claim backend %q", c.Claims.Backend)
	}
	if c.usesPostgres() && c.Postgres.URL == "" {
		return fmt.Errorf("postgres backend selected but DATABASE_URL is empty")
	}
	if c.Claims.Backend == BackendMongo && c.Mongo.URL == "" {
		return fmt.Errorf("mongo claim backend selected but MONGO_URL is empty")
	}
	return nil
}

func (c Config) usesPostgres() bool {
	return c.Providers.Backend == BackendPostgres ||
		c.Claims.Backend == BackendPostgres ||
		c.Vault.Backend == BackendPostgres
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
