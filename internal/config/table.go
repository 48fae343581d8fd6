package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type TableConfig struct {
	ActionCountdown int           `env:"ACTION_COUNTDOWN" envDefault:"12"`
	AnimationDelay  time.Duration `env:"ANIMATION_DELAY" envDefault:"1100ms"`
	TickInterval    time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	InboxSize       int           `env:"INBOX_SIZE" envDefault:"64"`
	ShuffleSeed     int64         `env:"SHUFFLE_SEED" envDefault:"0"`
}

func LoadTable() (TableConfig, error) {
	var cfg TableConfig
	err := env.Parse(&cfg)
	return cfg, err
}
