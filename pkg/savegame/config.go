package savegame

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

type Config struct {
	// StorageType selects the backend ("NOP", "REDIS", "JETSTREAM").
	StorageType string `env:"SAVEGAME_STORAGE_TYPE" envDefault:"NOP"`

	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisTTL expires records of abandoned games. Zero keeps them.
	RedisTTL time.Duration `env:"SAVEGAME_REDIS_TTL" envDefault:"0s"`

	// Bucket is the JetStream key-value bucket holding records.
	Bucket string `env:"SAVEGAME_BUCKET" envDefault:"freeorion_savegame"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse savegame config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate savegame config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	storageType, err := ParseStorageType(cfg.StorageType)
	if err != nil {
		return err
	}
	switch storageType {
	case StorageTypeRedis:
		if cfg.RedisAddress == "" {
			return eris.New("redis address cannot be empty")
		}
		if cfg.RedisTTL < 0 {
			return eris.New("redis ttl cannot be negative")
		}
	case StorageTypeJetStream:
		if cfg.Bucket == "" {
			return eris.New("bucket name cannot be empty")
		}
	case StorageTypeNop, StorageTypeUndefined:
	}
	return nil
}

// NewStorage builds the backend named by cfg. conn is only used by JetStream storage and may be
// nil otherwise.
func NewStorage(ctx context.Context, cfg Config, conn *nats.Conn) (Storage, error) {
	storageType, err := ParseStorageType(cfg.StorageType)
	if err != nil {
		return nil, err
	}

	switch storageType {
	case StorageTypeNop:
		return NewNopStorage(), nil
	case StorageTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, eris.Wrapf(err, "failed to connect to redis at %s", cfg.RedisAddress)
		}
		return NewRedisStorage(client, cfg.RedisTTL), nil
	case StorageTypeJetStream:
		return NewJetStreamStorage(ctx, conn, cfg.Bucket)
	case StorageTypeUndefined:
	}
	return nil, eris.Errorf("unsupported storage type: %s", storageType)
}
