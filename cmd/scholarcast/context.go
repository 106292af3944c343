package main

import (
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"scholarcast/internal/config"
	"scholarcast/internal/digest"
	"scholarcast/internal/logging"
	"scholarcast/internal/narration"
	"scholarcast/internal/outline"
	"scholarcast/internal/paperload"
	"scholarcast/internal/pipeline"
	"scholarcast/internal/render"
	"scholarcast/internal/search"
	"scholarcast/internal/services/llm"
	"scholarcast/internal/speech"
	"scholarcast/internal/storage"
	"scholarcast/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appOnce sync.Once
	app     *app
	appErr  error
}

// app bundles the wired services shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	search   *search.Service
	digest   *digest.Service
	audio    *digest.AudioSummarizer
	pipeline *pipeline.Pipeline
	uploader *storage.Client
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureApp() (*app, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = buildApp(cfg)
	})
	return c.app, c.appErr
}

func buildApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	uploader, err := storage.NewClient(cfg.Storage, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	loader := paperload.NewLoader(time.Duration(cfg.Search.RequestTimeout)*time.Second, cfg.Pipeline.SectionCharLimit, logger)
	structurer := outline.NewStructurer(llmClient, cfg.Pipeline.SlideCount, logger)
	composer := narration.NewComposer(llmClient, cfg.Pipeline.DefaultSegmentSeconds, logger)
	synthesizer := speech.NewSynthesizer(cfg.TTS, cfg.FFprobeBinary(), logger)
	renderer := render.NewRenderer(cfg.Render, logger)
	assembler := render.NewAssembler(cfg.FFmpegBinary(), cfg.Pipeline.DefaultSegmentSeconds, logger)

	var pipelineUploader pipeline.Uploader
	if uploader != nil {
		pipelineUploader = uploader
	}
	pipe := pipeline.New(cfg, st, loader, structurer, composer, synthesizer, renderer, assembler, pipelineUploader, logger)

	digestSvc := digest.NewService(llmClient, st, logger)
	var audioUploader digest.Uploader
	if uploader != nil {
		audioUploader = uploader
	}
	audioSvc := digest.NewAudioSummarizer(digestSvc, st, synthesizer, audioUploader, cfg.Paths.OutputDir, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		search:   search.NewService(cfg, st, logger),
		digest:   digestSvc,
		audio:    audioSvc,
		pipeline: pipe,
		uploader: uploader,
	}, nil
}

func (a *app) Close() {
	if a == nil || a.store == nil {
		return
	}
	_ = a.store.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
