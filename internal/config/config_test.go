package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8000")
	}
	if cfg.Orchestration.BulkEnhancePolicy != "all_or_nothing" {
		t.Errorf("BulkEnhancePolicy = %q, want all_or_nothing", cfg.Orchestration.BulkEnhancePolicy)
	}
	if cfg.Orchestration.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", cfg.Orchestration.SampleRate)
	}
	if cfg.Provider.Text != "gemini" {
		t.Errorf("Provider.Text = %q, want gemini", cfg.Provider.Text)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BULK_ENHANCE_POLICY", "PARTIAL")
	t.Setenv("OPERATION_TIMEOUT", "30")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:1234/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Orchestration.BulkEnhancePolicy != "partial" {
		t.Errorf("BulkEnhancePolicy = %q, want partial", cfg.Orchestration.BulkEnhancePolicy)
	}
	if cfg.Orchestration.OperationTimeout != 30 {
		t.Errorf("OperationTimeout = %d, want 30", cfg.Orchestration.OperationTimeout)
	}
	if cfg.Gemini.BaseURL != "http://localhost:1234" {
		t.Errorf("Gemini.BaseURL = %q, want trailing slash trimmed", cfg.Gemini.BaseURL)
	}
}

func TestReadSecret_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemini_key")
	if err := os.WriteFile(path, []byte("  secret-key\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gemini.APIKey != "secret-key" {
		t.Errorf("Gemini.APIKey = %q, want %q", cfg.Gemini.APIKey, "secret-key")
	}
}
