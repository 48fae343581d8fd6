package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type BotConfig struct {
	WSURL    string        `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Address  string        `env:"BOT_ADDRESS" envDefault:"bot"`
	TableID  int           `env:"BOT_TABLE_ID" envDefault:"0"`
	Position int           `env:"BOT_POSITION" envDefault:"-1"`
	BuyIn    int64         `env:"BOT_BUY_IN" envDefault:"1000"`
	Think    time.Duration `env:"BOT_THINK" envDefault:"500ms"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
