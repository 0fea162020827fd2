package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		SupabaseURL:      "https://project.supabase.co",
		SupabaseKey:      "anon-key",
		DataBackend:      BackendSupabase,
		Currency:         "LKR",
		CurrencyFraction: 0,
		WindowDays:       30,
		TopN:             5,
		ChartSize:        220,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{name: "valid supabase config", mutate: func(*Config) {}},
		{
			name:   "memory backend needs no credentials",
			mutate: func(c *Config) { c.DataBackend = BackendMemory; c.SupabaseURL = ""; c.SupabaseKey = "" },
		},
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.DataBackend = "sqlite" },
			wantErr:     true,
			errorString: "invalid data backend 'sqlite': must be one of [supabase memory]",
		},
		{
			name:        "missing supabase url",
			mutate:      func(c *Config) { c.SupabaseURL = "" },
			wantErr:     true,
			errorString: "SUPABASE_URL is required when using supabase backend",
		},
		{
			name:        "supabase url without scheme",
			mutate:      func(c *Config) { c.SupabaseURL = "project.supabase.co" },
			wantErr:     true,
			errorString: "must be an http(s) URL",
		},
		{
			name:        "missing supabase key",
			mutate:      func(c *Config) { c.SupabaseKey = "" },
			wantErr:     true,
			errorString: "SUPABASE_KEY is required",
		},
		{
			name:        "bad currency code",
			mutate:      func(c *Config) { c.Currency = "RUPEE" },
			wantErr:     true,
			errorString: "invalid currency 'RUPEE'",
		},
		{
			name:        "window too small",
			mutate:      func(c *Config) { c.WindowDays = 0 },
			wantErr:     true,
			errorString: "invalid window 0 days",
		},
		{
			name:        "top-N too large",
			mutate:      func(c *Config) { c.TopN = 40 },
			wantErr:     true,
			errorString: "invalid top-N 40",
		},
		{
			name:        "chart too small",
			mutate:      func(c *Config) { c.ChartSize = 10 },
			wantErr:     true,
			errorString: "invalid chart size 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errorString)
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("expected error containing %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.SupabaseKey = ""
	cfg.TopN = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "\n- "); got != 2 {
		t.Fatalf("expected 2 problems, got %d in %q", got, err.Error())
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_BACKEND", "CURRENCY", "CURRENCY_FRACTION", "WINDOW_DAYS", "TOP_N", "CHART_SIZE", "REPORT_CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataBackend != BackendSupabase {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.Currency != "LKR" || cfg.CurrencyFraction != 0 {
		t.Errorf("currency = %s/%d", cfg.Currency, cfg.CurrencyFraction)
	}
	if cfg.WindowDays != 30 || cfg.TopN != 5 {
		t.Errorf("window=%d topN=%d", cfg.WindowDays, cfg.TopN)
	}
	if cfg.ReportCacheTTL != 5*time.Minute {
		t.Errorf("ReportCacheTTL = %v", cfg.ReportCacheTTL)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("CURRENCY_FRACTION", "2")
	t.Setenv("WINDOW_DAYS", "31")
	t.Setenv("TOP_N", "not-a-number")
	t.Setenv("REPORT_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DataBackend != BackendMemory {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.Currency != "USD" || cfg.CurrencyFraction != 2 {
		t.Errorf("currency = %s/%d", cfg.Currency, cfg.CurrencyFraction)
	}
	if cfg.WindowDays != 31 {
		t.Errorf("WindowDays = %d", cfg.WindowDays)
	}
	if cfg.TopN != 5 {
		t.Errorf("TopN should fall back to default, got %d", cfg.TopN)
	}
	if cfg.ReportCacheTTL != 30*time.Second {
		t.Errorf("ReportCacheTTL = %v", cfg.ReportCacheTTL)
	}
}
