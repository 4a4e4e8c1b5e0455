package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

const defaultOptBaseURL = "https://api.openai.com/v1"

// Config is the backend configuration.
type Config struct {
	ListenAddr string

	S2TBaseURL string
	S2TAPIKey  string
	S2TModel   string

	OptBaseURL   string
	OptAPIKey    string
	OptModel     string
	SummaryModel string

	RequestTimeout       time.Duration
	TranscriptionTimeout time.Duration
	CalibrationTimeout   time.Duration
	SummaryTimeout       time.Duration

	ChunkTargetSize     int
	ChunkThreshold      int
	CalibrationWorkers  int
	CalibrationAttempts int

	MaxUploadBytes int64
	LogLevel       string
}

type envConfig struct {
	ListenAddr                  string `env:"LISTEN_ADDR" envDefault:":5000"`
	S2TBaseURL                  string `env:"S2T_BASE_URL" envDefault:"https://api.siliconflow.cn/v1"`
	S2TAPIKey                   string `env:"S2T_API_KEY"`
	S2TModel                    string `env:"S2T_MODEL" envDefault:"FunAudioLLM/SenseVoiceSmall"`
	OptBaseURL                  string `env:"OPT_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OptAPIKey                   string `env:"OPT_API_KEY"`
	OptModel                    string `env:"OPT_MODEL"`
	SummaryModel                string `env:"SUMMARY_MODEL"`
	RequestTimeoutSeconds       int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"300"`
	TranscriptionTimeoutSeconds int    `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"300"`
	CalibrationTimeoutSeconds   int    `env:"CALIBRATION_TIMEOUT_SECONDS" envDefault:"300"`
	SummaryTimeoutSeconds       int    `env:"SUMMARY_TIMEOUT_SECONDS" envDefault:"120"`
	ChunkTargetSize             int    `env:"CHUNK_TARGET_SIZE" envDefault:"5000"`
	ChunkThreshold              int    `env:"CHUNK_THRESHOLD" envDefault:"5500"`
	CalibrationWorkers          int    `env:"CALIBRATION_WORKERS" envDefault:"3"`
	CalibrationAttempts         int    `env:"CALIBRATION_ATTEMPTS" envDefault:"3"`
	MaxUploadBytes              int64  `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`
	LogLevel                    string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:           strings.TrimSpace(raw.ListenAddr),
		S2TBaseURL:           strings.TrimRight(strings.TrimSpace(raw.S2TBaseURL), "/"),
		S2TAPIKey:            strings.TrimSpace(raw.S2TAPIKey),
		S2TModel:             strings.TrimSpace(raw.S2TModel),
		OptBaseURL:           strings.TrimRight(strings.TrimSpace(raw.OptBaseURL), "/"),
		OptAPIKey:            strings.TrimSpace(raw.OptAPIKey),
		OptModel:             strings.TrimSpace(raw.OptModel),
		SummaryModel:         strings.TrimSpace(raw.SummaryModel),
		RequestTimeout:       time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		TranscriptionTimeout: time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		CalibrationTimeout:   time.Duration(raw.CalibrationTimeoutSeconds) * time.Second,
		SummaryTimeout:       time.Duration(raw.SummaryTimeoutSeconds) * time.Second,
		ChunkTargetSize:      raw.ChunkTargetSize,
		ChunkThreshold:       raw.ChunkThreshold,
		CalibrationWorkers:   raw.CalibrationWorkers,
		CalibrationAttempts:  raw.CalibrationAttempts,
		MaxUploadBytes:       raw.MaxUploadBytes,
		LogLevel:             strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = cfg.OptModel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural settings only. Missing API keys are reported at
// request time so the server can still start and answer health checks.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.S2TModel == "" {
		return errors.New("S2T_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptionTimeout <= 0 {
		return errors.New("TRANSCRIPTION_TIMEOUT_SECONDS must be > 0")
	}
	if c.CalibrationTimeout <= 0 {
		return errors.New("CALIBRATION_TIMEOUT_SECONDS must be > 0")
	}
	if c.SummaryTimeout <= 0 {
		return errors.New("SUMMARY_TIMEOUT_SECONDS must be > 0")
	}
	if c.ChunkTargetSize <= 0 {
		return errors.New("CHUNK_TARGET_SIZE must be > 0")
	}
	if c.ChunkThreshold < c.ChunkTargetSize {
		return fmt.Errorf("CHUNK_THRESHOLD (%d) must be >= CHUNK_TARGET_SIZE (%d)", c.ChunkThreshold, c.ChunkTargetSize)
	}
	if c.CalibrationWorkers <= 0 {
		return errors.New("CALIBRATION_WORKERS must be > 0")
	}
	if c.CalibrationAttempts <= 0 {
		return errors.New("CALIBRATION_ATTEMPTS must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	return nil
}

// S2TProblem describes why speech-to-text cannot run, or "" when it can.
func (c Config) S2TProblem() string {
	if c.S2TAPIKey == "" {
		return "server configuration error: missing S2T API key"
	}
	if !isHTTPURL(c.S2TBaseURL) {
		return "server configuration error: S2T API URL is not a valid http(s) URL"
	}
	return ""
}

// OptConfigured reports whether the optimizer was configured at all, even
// partially. An untouched optimizer is skipped quietly; a partial one is
// reported as incomplete.
func (c Config) OptConfigured() bool {
	return c.OptAPIKey != "" || (c.OptBaseURL != "" && c.OptBaseURL != defaultOptBaseURL) || c.OptModel != ""
}

// CalibrationSkipReason returns why calibration is disabled, or "" when the
// optimizer is fully configured.
func (c Config) CalibrationSkipReason() string {
	var missing []string
	if c.OptAPIKey == "" {
		missing = append(missing, "missing API key")
	}
	if !isHTTPURL(c.OptBaseURL) {
		missing = append(missing, "invalid API URL")
	}
	if c.OptModel == "" {
		missing = append(missing, "missing model name")
	}
	if len(missing) == 0 {
		return ""
	}
	if !c.OptConfigured() {
		return "service not configured"
	}
	return "incomplete configuration: " + strings.Join(missing, ", ")
}

// ConfigWarnings lists startup warnings worth logging.
func (c Config) ConfigWarnings() []string {
	var warnings []string
	if problem := c.S2TProblem(); problem != "" {
		warnings = append(warnings, problem+"; audio transcription will fail")
	}
	if reason := c.CalibrationSkipReason(); reason != "" && c.OptConfigured() {
		warnings = append(warnings, "calibration disabled ("+reason+"); raw transcriptions will be returned")
	}
	return warnings
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
