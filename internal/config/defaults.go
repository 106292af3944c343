package config

const (
	defaultWorkspaceDir          = "~/.local/share/scholarcast/workspace"
	defaultOutputDir             = "~/.local/share/scholarcast/videos"
	defaultDatabasePath          = "~/.local/share/scholarcast/scholarcast.db"
	defaultLogDir                = "~/.local/share/scholarcast/logs"
	defaultBind                  = "127.0.0.1:8310"
	defaultServerRequestTimeout  = 30
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "openai/gpt-4o-mini"
	defaultLLMTimeoutSeconds     = 120
	defaultLLMMaxRetries         = 3
	defaultTTSBaseURL            = "https://api.elevenlabs.io"
	defaultTTSModelID            = "eleven_multilingual_v2"
	defaultTTSOutputFormat       = "mp3_44100_128"
	defaultTTSTimeoutSeconds     = 120
	defaultArxivBaseURL          = "http://export.arxiv.org/api/query"
	defaultSemanticScholarURL    = "https://api.semanticscholar.org/graph/v1"
	defaultSearchMaxResults      = 10
	defaultSearchRequestTimeout  = 20
	defaultStorageRegion         = "auto"
	defaultPresignExpiryMinutes  = 60
	defaultRenderWidth           = 1920
	defaultRenderHeight          = 1080
	defaultSlideCount            = 3
	defaultSegmentSeconds        = 20
	defaultSectionCharLimit      = 2000
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			DatabasePath: defaultDatabasePath,
		},
		Server: Server{
			Bind:           defaultBind,
			RequestTimeout: defaultServerRequestTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxRetries:     defaultLLMMaxRetries,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			ModelID:        defaultTTSModelID,
			OutputFormat:   defaultTTSOutputFormat,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Search: Search{
			ArxivBaseURL:           defaultArxivBaseURL,
			SemanticScholarBaseURL: defaultSemanticScholarURL,
			MaxResults:             defaultSearchMaxResults,
			RequestTimeout:         defaultSearchRequestTimeout,
		},
		Storage: Storage{
			Region:               defaultStorageRegion,
			PresignExpiryMinutes: defaultPresignExpiryMinutes,
		},
		Render: Render{
			Width:  defaultRenderWidth,
			Height: defaultRenderHeight,
		},
		Pipeline: Pipeline{
			SlideCount:            defaultSlideCount,
			DefaultSegmentSeconds: defaultSegmentSeconds,
			SectionCharLimit:      defaultSectionCharLimit,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			Directory: defaultLogDir,
		},
	}
}
