package testsupport

import (
	"path/filepath"
	"testing"

	"scholarcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.DatabasePath = filepath.Join(base, "scholarcast.db")
	cfg.LLM.APIKey = "test"
	cfg.Logging.Directory = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithServerBind points the API server at an ephemeral local port.
func WithServerBind(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.Bind = "127.0.0.1:0"
		cfg.Server.APIToken = token
	}
}
