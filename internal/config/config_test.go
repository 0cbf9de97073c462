package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
http:
  user_agent: partywatch-agent
  timeout_seconds: 45
  max_retries: 4
  backoff_base_ms: 500
headless:
  enabled: false
  nav_timeout_seconds: 20
run:
  source_delay_ms: 300
  date_from: "2026-03-01"
  keep_undated: true
  reference_year: 2026
publish:
  create_pace_ms: 50
  excluded_urls:
    - "https://www.justice21.org/newhome/board/board_view.html?num=109587"
  category_renames:
    브리핑: 논평
notion:
  database_id: db-123
logging:
  development: false
sources:
  - id: kg-commentary
    party: 녹색당
    site: kgreens
    category: 논평
    list_url: https://www.kgreens.org/commentary
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.UserAgent != "partywatch-agent" || cfg.HTTP.MaxRetries != 4 {
		t.Fatalf("expected http overrides to apply: %+v", cfg.HTTP)
	}
	if cfg.Headless.Enabled {
		t.Fatalf("expected headless disabled")
	}
	if cfg.Run.DateFrom != "2026-03-01" || !cfg.Run.KeepUndated || cfg.Run.ReferenceYear != 2026 {
		t.Fatalf("expected run overrides to apply: %+v", cfg.Run)
	}
	if len(cfg.Publish.ExcludedURLs) != 1 {
		t.Fatalf("expected one excluded url: %+v", cfg.Publish)
	}
	if cfg.Publish.CategoryRenames["브리핑"] != "논평" {
		t.Fatalf("expected category rename to load: %+v", cfg.Publish.CategoryRenames)
	}
	if cfg.Notion.DatabaseID != "db-123" {
		t.Fatalf("expected notion database id, got %q", cfg.Notion.DatabaseID)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Site != "kgreens" {
		t.Fatalf("expected one source: %+v", cfg.Sources)
	}

	if got := cfg.HTTPTimeout(); got != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %v", got)
	}
	if got := cfg.SourceDelay(); got != 300*time.Millisecond {
		t.Fatalf("expected source delay 300ms, got %v", got)
	}
	if got := cfg.CreatePace(); got != 50*time.Millisecond {
		t.Fatalf("expected create pace 50ms, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.TimeoutSeconds != 30 || cfg.HTTP.MaxRetries != 3 {
		t.Fatalf("expected http defaults: %+v", cfg.HTTP)
	}
	if cfg.BackoffBase() != 2*time.Second {
		t.Fatalf("expected 2s backoff base, got %v", cfg.BackoffBase())
	}
	if cfg.Run.SourceDelayMs != 1200 || cfg.Run.KeepUndated {
		t.Fatalf("expected run defaults: %+v", cfg.Run)
	}
	if !cfg.Headless.Enabled {
		t.Fatalf("expected headless enabled by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		HTTP: HTTPConfig{TimeoutSeconds: 10},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "negative retries",
			cfg: func() Config {
				c := base
				c.HTTP.MaxRetries = -1
				return c
			}(),
			want: "http.max_retries",
		},
		{
			name: "bad date_from",
			cfg: func() Config {
				c := base
				c.Run.DateFrom = "03/01/2026"
				return c
			}(),
			want: "run.date_from",
		},
		{
			name: "incomplete source",
			cfg: func() Config {
				c := base
				c.Sources = []scrape.Target{{Site: "kgreens"}}
				return c
			}(),
			want: "sources[0]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
