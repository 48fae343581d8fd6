package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	AccountStore    string `env:"ACCOUNT_STORE" envDefault:"memory"`
	PostgresDSN     string `env:"POSTGRES_DSN"`
	MongoURI        string `env:"MONGODB_URI"`
	StartingBalance int64  `env:"STARTING_BALANCE" envDefault:"10000"`

	NATSURL   string `env:"NATS_URL"`
	NATSToken string `env:"NATS_TOKEN"`

	CORSOrigins     []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMin int      `env:"RATE_LIMIT_PER_MIN" envDefault:"600"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c ServerConfig) Validate() error {
	switch c.AccountStore {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for ACCOUNT_STORE=postgres")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for ACCOUNT_STORE=mongo")
		}
	default:
		return errors.New("ACCOUNT_STORE must be memory, postgres or mongo")
	}
	if c.StartingBalance < 0 {
		return errors.New("STARTING_BALANCE must not be negative")
	}
	return nil
}
