package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set only required env var
	os.Setenv("DATASET_PATH", "testdata/graduates.csv")
	defer os.Unsetenv("DATASET_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if !cfg.Dataset.AllowReload {
		t.Error("Dataset.AllowReload = false, want true")
	}
	if cfg.Dataset.MaxFileSize != 104857600 {
		t.Errorf("Dataset.MaxFileSize = %d, want %d", cfg.Dataset.MaxFileSize, 104857600)
	}
	if cfg.Rate.RequestsPerMinute != 300 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 300)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, 30*time.Second)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("DATASET_PATH", "testdata/graduates.csv")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATASET_ALLOW_RELOAD", "false")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("DATASET_PATH")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DATASET_ALLOW_RELOAD")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Dataset.AllowReload {
		t.Error("Dataset.AllowReload = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	// Test that CSV_PATH works as fallback
	os.Setenv("CSV_PATH", "testdata/alt.csv")
	defer os.Unsetenv("CSV_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dataset.Path != "testdata/alt.csv" {
		t.Errorf("Dataset.Path = %q, want %q", cfg.Dataset.Path, "testdata/alt.csv")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("DATASET_PATH")
	os.Unsetenv("CSV_PATH")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when DATASET_PATH is unset")
	}
}

func TestValidate_BadValues(t *testing.T) {
	os.Setenv("DATASET_PATH", "testdata/graduates.csv")
	os.Setenv("SERVER_PORT", "70000")
	os.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		os.Unsetenv("DATASET_PATH")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("LOG_LEVEL")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected validation error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error %q should mention SERVER_PORT", err)
	}
	if !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("error %q should mention LOG_LEVEL", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 8080, ":8080"},
		{"127.0.0.1", 9000, "127.0.0.1:9000"},
	}
	for _, tt := range tests {
		sc := ServerConfig{Host: tt.host, Port: tt.port}
		if got := sc.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksNothingSensitive(t *testing.T) {
	os.Setenv("DATASET_PATH", "testdata/graduates.csv")
	defer os.Unsetenv("DATASET_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.String()
	if !strings.Contains(s, "testdata/graduates.csv") {
		t.Errorf("String() = %q, should include dataset path", s)
	}
}
