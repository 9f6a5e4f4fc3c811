package main

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"realtime-srv/internal/subscriber"
)

type options struct {
	BaseURL      string `long:"base-url" env:"REALTIME_BASE_URL" description:"Realtime service base URL (e.g. https://rt.example.com)"`
	SessionToken string `long:"session-token" env:"REALTIME_SESSION_TOKEN" description:"Session token used to mint stream credentials"`
	UserID       string `long:"user-id" env:"REALTIME_USER_ID" description:"User id shown in log output"`
	LogLevel     string `long:"log-level" env:"REALTIME_LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
}

// tuning is read from the environment only.
type tuning struct {
	BaseDelay       time.Duration `env:"SUBSCRIBER_BASE_DELAY" envDefault:"1s"`
	MaxDelay        time.Duration `env:"SUBSCRIBER_MAX_DELAY" envDefault:"30s"`
	MaxAttempts     int           `env:"SUBSCRIBER_MAX_ATTEMPTS" envDefault:"5"`
	RecoveryDelay   time.Duration `env:"SUBSCRIBER_RECOVERY_DELAY" envDefault:"60s"`
	RefreshInterval time.Duration `env:"SUBSCRIBER_REFRESH_INTERVAL" envDefault:"50m"`
	IdleTimeout     time.Duration `env:"SUBSCRIBER_IDLE_TIMEOUT" envDefault:"75s"`
}

func parseOptions() (options, tuning, error) {
	_ = godotenv.Load()

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		return options{}, tuning{}, err
	}
	if strings.TrimSpace(opts.SessionToken) == "" {
		return options{}, tuning{}, errors.New("session token is required")
	}

	var t tuning
	if err := env.Parse(&t); err != nil {
		return options{}, tuning{}, err
	}
	return opts, t, nil
}

func (t tuning) subscriberConfig() subscriber.Config {
	return subscriber.Config{
		Policy: &subscriber.Policy{
			BaseDelay:     t.BaseDelay,
			MaxDelay:      t.MaxDelay,
			MaxAttempts:   t.MaxAttempts,
			RecoveryDelay: t.RecoveryDelay,
		},
		RefreshInterval: t.RefreshInterval,
		IdleTimeout:     t.IdleTimeout,
	}
}
