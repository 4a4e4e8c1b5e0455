package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("S2T_API_KEY", " s2t-key ")
	t.Setenv("OPT_MODEL", "gpt-4o-mini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":5000" || cfg.S2TAPIKey != "s2t-key" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SummaryModel != "gpt-4o-mini" {
		t.Fatalf("summary model should default to OPT_MODEL, got %q", cfg.SummaryModel)
	}
	if cfg.ChunkTargetSize != 5000 || cfg.ChunkThreshold != 5500 || cfg.CalibrationWorkers != 3 || cfg.CalibrationAttempts != 3 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg)
	}
	if cfg.TranscriptionTimeout != 300*time.Second {
		t.Fatalf("unexpected transcription timeout: %s", cfg.TranscriptionTimeout)
	}
}

func TestLoadRejectsThresholdBelowChunkSize(t *testing.T) {
	t.Setenv("CHUNK_TARGET_SIZE", "100")
	t.Setenv("CHUNK_THRESHOLD", "50")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHUNK_THRESHOLD") {
		t.Fatalf("expected CHUNK_THRESHOLD error, got %v", err)
	}
}

func TestCalibrationSkipReason(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "untouched",
			cfg:  Config{OptBaseURL: defaultOptBaseURL},
			want: "service not configured",
		},
		{
			name: "key without model",
			cfg:  Config{OptBaseURL: defaultOptBaseURL, OptAPIKey: "k"},
			want: "incomplete configuration: missing model name",
		},
		{
			name: "model with bad url",
			cfg:  Config{OptBaseURL: "api.local", OptModel: "m"},
			want: "incomplete configuration: missing API key, invalid API URL",
		},
		{
			name: "complete",
			cfg:  Config{OptBaseURL: "https://llm.local/v1", OptAPIKey: "k", OptModel: "m"},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.CalibrationSkipReason(); got != tc.want {
				t.Fatalf("CalibrationSkipReason() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestS2TProblemAndWarnings(t *testing.T) {
	cfg := Config{S2TBaseURL: "https://api.siliconflow.cn/v1", OptBaseURL: defaultOptBaseURL, OptAPIKey: "k"}
	if cfg.S2TProblem() == "" {
		t.Fatal("expected missing key problem")
	}
	warnings := cfg.ConfigWarnings()
	if len(warnings) != 2 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	cfg.S2TAPIKey = "k"
	cfg.OptModel = "m"
	if cfg.S2TProblem() != "" || len(cfg.ConfigWarnings()) != 0 {
		t.Fatalf("expected no problems: %q %v", cfg.S2TProblem(), cfg.ConfigWarnings())
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("SCRIBEFLOW_SERVER_URL", "http://localhost:5000/")
	t.Setenv("SCRIBEFLOW_COPY_INDICATOR_UNIT_MS", "250")
	t.Setenv("SCRIBEFLOW_LOG_FILE", "/tmp/sf.log")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.ServerURL != "http://localhost:5000" {
		t.Fatalf("unexpected server url: %q", cfg.ServerURL)
	}
	if cfg.CopyIndicatorUnit != 250*time.Millisecond {
		t.Fatalf("unexpected indicator unit: %s", cfg.CopyIndicatorUnit)
	}
	if cfg.LogFile != "/tmp/sf.log" || cfg.MetricsAddr != "" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadClientRejectsBadURL(t *testing.T) {
	t.Setenv("SCRIBEFLOW_SERVER_URL", "localhost:5000")
	if _, err := LoadClient(); err == nil {
		t.Fatal("expected error")
	}
}
