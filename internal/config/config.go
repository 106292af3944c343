package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	OutputDir    string `toml:"output_dir"`
	DatabasePath string `toml:"database_path"`
}

// Server contains HTTP API configuration.
type Server struct {
	Bind           string `toml:"bind"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// LLM contains connection settings for the chat-completions endpoint used to
// structure slides, compose narration, and build summaries and quizzes.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// TTS contains configuration for the speech synthesis provider.
type TTS struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	VoiceID        string `toml:"voice_id"`
	ModelID        string `toml:"model_id"`
	OutputFormat   string `toml:"output_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Search contains configuration for the paper discovery providers.
type Search struct {
	ArxivBaseURL           string `toml:"arxiv_base_url"`
	SemanticScholarBaseURL string `toml:"semantic_scholar_base_url"`
	SemanticScholarAPIKey  string `toml:"semantic_scholar_api_key"`
	MaxResults             int    `toml:"max_results"`
	RequestTimeout         int    `toml:"request_timeout"`
}

// Storage contains configuration for S3-compatible object storage uploads.
type Storage struct {
	Enabled              bool   `toml:"enabled"`
	Endpoint             string `toml:"endpoint"`
	Region               string `toml:"region"`
	Bucket               string `toml:"bucket"`
	AccessKeyID          string `toml:"access_key_id"`
	SecretAccessKey      string `toml:"secret_access_key"`
	KeyPrefix            string `toml:"key_prefix"`
	PublicBaseURL        string `toml:"public_base_url"`
	PresignExpiryMinutes int    `toml:"presign_expiry_minutes"`
}

// Render contains configuration for slide rendering and video assembly.
type Render struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	FontPath      string `toml:"font_path"`
	PresenterClip string `toml:"presenter_clip"`
}

// Pipeline contains tuning knobs for the generation pipeline.
type Pipeline struct {
	SlideCount            int `toml:"slide_count"`
	DefaultSegmentSeconds int `toml:"default_segment_seconds"`
	SectionCharLimit      int `toml:"section_char_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	Directory string `toml:"directory"`
}

// Config encapsulates all configuration values for the service.
//
// Configuration sections by subsystem:
//   - Paths: workspace/output directories and the sqlite database location
//   - Server: HTTP API bind address and auth token
//   - LLM: chat-completions connection settings shared by all generation steps
//   - TTS: speech synthesis provider settings
//   - Search: arXiv and Semantic Scholar discovery settings
//   - Storage: S3-compatible upload settings
//   - Render: slide dimensions and font
//   - Pipeline: slide count and narration timing defaults
//   - Logging: log format, level, and directory
type Config struct {
	Paths    Paths    `toml:"paths"`
	Server   Server   `toml:"server"`
	LLM      LLM      `toml:"llm"`
	TTS      TTS      `toml:"tts"`
	Search   Search   `toml:"search"`
	Storage  Storage  `toml:"storage"`
	Render   Render   `toml:"render"`
	Pipeline Pipeline `toml:"pipeline"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scholarcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scholarcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for service operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkspaceDir, c.Paths.OutputDir, c.PapersDir(), c.ScratchDir()}
	if dir := strings.TrimSpace(c.Logging.Directory); dir != "" {
		dirs = append(dirs, dir)
	}
	if dbDir := filepath.Dir(c.Paths.DatabasePath); dbDir != "." && dbDir != "" {
		dirs = append(dirs, dbDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PapersDir returns the directory downloaded PDFs are stored in.
func (c *Config) PapersDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "papers")
}

// ScratchDir returns the parent directory for per-paper pipeline scratch
// space.
func (c *Config) ScratchDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, "scratch")
}

// FFmpegBinary returns the ffmpeg executable name used for video assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
