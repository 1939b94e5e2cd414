package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidsub/internal/config"
)

func clearBackendEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VIDSUB_BACKEND_URL", "")
	t.Setenv("REACT_APP_BACKEND_URL", "")
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearBackendEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "vidsub")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Downloads", "vidsub") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Backend.BaseURL != "http://localhost:8001" {
		t.Fatalf("unexpected base url: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeoutSeconds != 0 {
		t.Fatalf("expected no request timeout by default, got %d", cfg.Backend.RequestTimeoutSeconds)
	}
	if cfg.RequestTimeout() != 0 {
		t.Fatalf("expected zero request timeout duration, got %s", cfg.RequestTimeout())
	}
	if cfg.Workflow.DefaultTargetLanguage != "original" {
		t.Fatalf("unexpected default target language: %q", cfg.Workflow.DefaultTargetLanguage)
	}
	if len(cfg.API.AllowedOrigins) != 1 || cfg.API.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected allowed origins: %v", cfg.API.AllowedOrigins)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.HistoryPath()) != cfg.Paths.StateDir {
		t.Fatalf("history db outside state dir: %q", cfg.HistoryPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearBackendEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidsub.toml")

	type payload struct {
		Backend struct {
			BaseURL               string `toml:"base_url"`
			RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
		} `toml:"backend"`
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Workflow struct {
			DefaultTargetLanguage string `toml:"default_target_language"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Backend.BaseURL = "transcriber.example.com:9000/"
	custom.Backend.RequestTimeoutSeconds = 900
	custom.Paths.OutputDir = filepath.Join(tempDir, "subs")
	custom.Workflow.DefaultTargetLanguage = " ES "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Backend.BaseURL != "http://transcriber.example.com:9000" {
		t.Fatalf("expected normalized base url, got %q", cfg.Backend.BaseURL)
	}
	if cfg.RequestTimeout().Seconds() != 900 {
		t.Fatalf("expected 900s request timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "subs") {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Workflow.DefaultTargetLanguage != "es" {
		t.Fatalf("expected lowercased target language, got %q", cfg.Workflow.DefaultTargetLanguage)
	}
}

func TestEnvVarOverridesConfigFileForBaseURL(t *testing.T) {
	clearBackendEnv(t)
	configPath := filepath.Join(t.TempDir(), "vidsub.toml")
	if err := os.WriteFile(configPath, []byte("[backend]\nbase_url = \"http://file.example\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("REACT_APP_BACKEND_URL", "http://legacy.example")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://legacy.example" {
		t.Errorf("expected legacy env url, got %q", cfg.Backend.BaseURL)
	}

	t.Setenv("VIDSUB_BACKEND_URL", "https://env.example/")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://env.example" {
		t.Errorf("expected VIDSUB_BACKEND_URL to win, got %q", cfg.Backend.BaseURL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "VIDSUB_BACKEND_URL") {
		t.Fatalf("sample config missing env hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8001" {
		t.Fatalf("unexpected sample base url %q", cfg.Backend.BaseURL)
	}
	if !strings.Contains(cfg.Paths.StateDir, "vidsub") {
		t.Fatalf("expected state dir to contain vidsub, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.BaseURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http scheme")
	}

	cfg = config.Default()
	cfg.Backend.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty base url")
	}

	cfg = config.Default()
	cfg.Backend.CatalogTimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero catalog timeout")
	}

	cfg = config.Default()
	cfg.Workflow.ProgressLogBucket = 101
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized progress bucket")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.Paths.APIBind = "localhost"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bind without port")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"  ":                       "",
		"localhost:8001":           "http://localhost:8001",
		"https://svc.example/api/": "https://svc.example/api",
		"http://svc.example//":     "http://svc.example",
	}
	for input, want := range cases {
		if got := config.NormalizeBaseURL(input); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", input, got, want)
		}
	}
}
