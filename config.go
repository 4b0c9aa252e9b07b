package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	ApiUrl      string
	ApiKey      string
	CacheDir    string
	LogLevel    zerolog.Level
	HttpTimeout time.Duration
}

// LoadConfig reads the environment, after loading .env if one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	conf := &Config{
		ApiUrl:   os.Getenv("API_URL"),
		ApiKey:   os.Getenv("API_KEY"),
		CacheDir: os.Getenv("CACHE_DIR"),
		LogLevel: zerolog.InfoLevel,
	}

	if conf.ApiUrl == "" {
		return nil, errors.New("API_URL is not set")
	}
	if conf.ApiKey == "" {
		return nil, errors.New("API_KEY is not set")
	}
	if conf.CacheDir == "" {
		conf.CacheDir = "./db/"
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := zerolog.ParseLevel(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid LOG_LEVEL %q", raw)
		}
		conf.LogLevel = level
	}

	if raw := os.Getenv("HTTP_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid HTTP_TIMEOUT %q", raw)
		}
		conf.HttpTimeout = timeout
	}

	return conf, nil
}
