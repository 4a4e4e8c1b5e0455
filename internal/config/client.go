package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

// ClientConfig is the configuration of the terminal client.
type ClientConfig struct {
	ServerURL         string
	RequestTimeout    time.Duration
	CopyIndicatorUnit time.Duration
	LogFile           string
	LogLevel          string
	MetricsAddr       string
}

type clientEnvConfig struct {
	ServerURL             string `env:"SCRIBEFLOW_SERVER_URL" envDefault:"http://127.0.0.1:5000"`
	RequestTimeoutSeconds int    `env:"SCRIBEFLOW_REQUEST_TIMEOUT_SECONDS" envDefault:"300"`
	CopyIndicatorUnitMS   int    `env:"SCRIBEFLOW_COPY_INDICATOR_UNIT_MS" envDefault:"1000"`
	LogFile               string `env:"SCRIBEFLOW_LOG_FILE"`
	LogLevel              string `env:"SCRIBEFLOW_LOG_LEVEL" envDefault:"info"`
	MetricsAddr           string `env:"SCRIBEFLOW_METRICS_ADDR"`
}

func LoadClient() (ClientConfig, error) {
	var raw clientEnvConfig
	if err := cenv.Parse(&raw); err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		ServerURL:         strings.TrimRight(strings.TrimSpace(raw.ServerURL), "/"),
		RequestTimeout:    time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		CopyIndicatorUnit: time.Duration(raw.CopyIndicatorUnitMS) * time.Millisecond,
		LogFile:           strings.TrimSpace(raw.LogFile),
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		MetricsAddr:       strings.TrimSpace(raw.MetricsAddr),
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(os.TempDir(), "scribeflow.log")
	}

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func (c ClientConfig) Validate() error {
	if !isHTTPURL(c.ServerURL) {
		return errors.New("SCRIBEFLOW_SERVER_URL must be an http(s) URL")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("SCRIBEFLOW_REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.CopyIndicatorUnit <= 0 {
		return errors.New("SCRIBEFLOW_COPY_INDICATOR_UNIT_MS must be > 0")
	}
	return nil
}
