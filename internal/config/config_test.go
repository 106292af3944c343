package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scholarcast/internal/config"
)

func TestLoadDefaultConfigUsesEnvLLMKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

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

	wantWorkspace := filepath.Join(tempHome, ".local", "share", "scholarcast", "workspace")
	if cfg.Paths.WorkspaceDir != wantWorkspace {
		t.Fatalf("unexpected workspace dir: got %q want %q", cfg.Paths.WorkspaceDir, wantWorkspace)
	}
	if cfg.Server.Bind != "127.0.0.1:8310" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected LLM base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.Storage.Enabled {
		t.Fatal("expected storage disabled by default")
	}
	if cfg.Pipeline.SlideCount != 3 {
		t.Fatalf("unexpected slide count: %d", cfg.Pipeline.SlideCount)
	}
	if cfg.Pipeline.DefaultSegmentSeconds != 20 {
		t.Fatalf("unexpected segment seconds: %d", cfg.Pipeline.DefaultSegmentSeconds)
	}
	if cfg.Render.Width != 1920 || cfg.Render.Height != 1080 {
		t.Fatalf("unexpected render dimensions: %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.OutputDir, cfg.Logging.Directory} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "scholarcast.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"llm"`
		Server struct {
			Bind string `toml:"bind"`
		} `toml:"server"`
		Pipeline struct {
			SlideCount int `toml:"slide_count"`
		} `toml:"pipeline"`
	}
	custom := payload{}
	custom.LLM.APIKey = "abc123"
	custom.LLM.Model = "anthropic/claude-sonnet"
	custom.Server.Bind = "0.0.0.0:9000"
	custom.Pipeline.SlideCount = 5
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
	if cfg.LLM.APIKey != "abc123" {
		t.Fatalf("expected LLM key from file, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "anthropic/claude-sonnet" {
		t.Fatalf("expected model override, got %q", cfg.LLM.Model)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Fatalf("expected bind override, got %q", cfg.Server.Bind)
	}
	if cfg.Pipeline.SlideCount != 5 {
		t.Fatalf("expected slide count 5, got %d", cfg.Pipeline.SlideCount)
	}
}

func TestEnvVarFillsMissingAPIKeys(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "scholarcast.toml")

	if err := os.WriteFile(configPath, []byte("[llm]\nmodel = \"test/model\"\n"), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("ELEVENLABS_API_KEY", "env-tts")
	t.Setenv("SEMANTIC_SCHOLAR_API_KEY", "env-s2")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.TTS.APIKey != "env-tts" {
		t.Errorf("expected TTS key from env, got %q", cfg.TTS.APIKey)
	}
	if cfg.Search.SemanticScholarAPIKey != "env-s2" {
		t.Errorf("expected Semantic Scholar key from env, got %q", cfg.Search.SemanticScholarAPIKey)
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
	if !strings.Contains(string(contents), "[llm]") {
		t.Fatalf("sample config missing llm section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing llm api key")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Search.MaxResults = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive max results")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Storage.Enabled = true
	cfg.Storage.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when storage enabled without bucket")
	}

	cfg = config.Default()
	cfg.LLM.APIKey = "key"
	cfg.Render.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive render width")
	}
}
