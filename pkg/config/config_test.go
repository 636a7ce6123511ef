package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
engine:
  model_dir: /tmp/models
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Engine.SequenceLength != 28 {
		t.Fatalf("sequence_length = %d, want 28", cfg.Engine.SequenceLength)
	}
	if cfg.Engine.MinEligibleDays != 42 {
		t.Fatalf("min_eligible_days = %d, want 42", cfg.Engine.MinEligibleDays)
	}
	if cfg.Engine.TrainTimeout != 2*time.Minute {
		t.Fatalf("train_timeout = %v, want 2m", cfg.Engine.TrainTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadParsesValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: production
server:
  port: 9090
logging:
  level: debug
engine:
  model_dir: /var/lib/models
  sequence_length: 14
  min_eligible_days: 21
  cache_ttl: 1h
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Engine.SequenceLength != 14 || cfg.Engine.MinEligibleDays != 21 {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.CacheTTL != time.Hour {
		t.Fatalf("cache_ttl = %v", cfg.Engine.CacheTTL)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing environment",
			body: "engine:\n  model_dir: /tmp/m\n",
			want: "environment",
		},
		{
			name: "missing model dir",
			body: "environment: test\n",
			want: "model_dir",
		},
		{
			name: "sequence too short",
			body: "environment: test\nengine:\n  model_dir: /tmp/m\n  sequence_length: 3\n",
			want: "sequence_length",
		},
		{
			name: "eligible days below one sequence",
			body: "environment: test\nengine:\n  model_dir: /tmp/m\n  sequence_length: 28\n  min_eligible_days: 10\n",
			want: "min_eligible_days",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("LOADPULSE_MODEL_DIR", "/override/models")
	t.Setenv("LOADPULSE_PORT", "7070")
	t.Setenv("LOADPULSE_LOG_LEVEL", "debug")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.ModelDir != "/override/models" {
		t.Fatalf("model_dir = %q", cfg.Engine.ModelDir)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}
