package config

import "github.com/caarlos0/env/v11"

type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}

type TestMongoConfig struct {
	TestMongoURI string `env:"TEST_MONGODB_URI,required,notEmpty"`
}

func LoadTestMongo() (TestMongoConfig, error) {
	var cfg TestMongoConfig
	err := env.Parse(&cfg)
	return cfg, err
}

type TestNATSConfig struct {
	TestNATSURL string `env:"TEST_NATS_URL,required,notEmpty"`
}

func LoadTestNATS() (TestNATSConfig, error) {
	var cfg TestNATSConfig
	err := env.Parse(&cfg)
	return cfg, err
}
