package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/haivivi/julesvoice/cmd/julesvoice/internal/config"
	"github.com/haivivi/julesvoice/pkg/assistant"
	"github.com/haivivi/julesvoice/pkg/audio/capture"
	"github.com/haivivi/julesvoice/pkg/cli"
	"github.com/haivivi/julesvoice/pkg/dialogue"
	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/interaction"
	"github.com/haivivi/julesvoice/pkg/jules"
	"github.com/haivivi/julesvoice/pkg/metrics"
	"github.com/haivivi/julesvoice/pkg/transcribe"
)

func loadServices() (*config.Services, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return cfg.LoadServices(contextName)
}

func newGeminiClient(ctx context.Context, svc *config.GeminiService) (*genai.Client, error) {
	if svc.APIKey == "" {
		return nil, fmt.Errorf("gemini api_key not configured; run: julesvoice config set <context> gemini api_key <key>")
	}
	cc := &genai.ClientConfig{
		APIKey:  svc.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if svc.BaseURL != "" {
		cc.HTTPOptions.BaseURL = svc.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func newOpenAIClient(svc *config.OpenAIService) (*openai.Client, error) {
	if svc.APIKey == "" {
		return nil, fmt.Errorf("openai api_key not configured; run: julesvoice config set <context> openai api_key <key>")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(svc.APIKey),
		option.WithMaxRetries(svc.MaxRetries),
	}
	if svc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(svc.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &client, nil
}

// newGenerator returns the chat backend named by assistant.yaml.
func newGenerator(ctx context.Context, s *config.Services) (genx.Generator, error) {
	params := s.Assistant.Params
	switch s.Assistant.Backend {
	case "", config.BackendGemini:
		client, err := newGeminiClient(ctx, s.Gemini)
		if err != nil {
			return nil, err
		}
		model := s.Gemini.Model
		if model == "" {
			model = config.DefaultGeminiModel
		}
		return &genx.GeminiGenerator{Client: client, Model: model, Params: params}, nil
	case config.BackendOpenAI:
		client, err := newOpenAIClient(s.OpenAI)
		if err != nil {
			return nil, err
		}
		if s.OpenAI.Model == "" {
			return nil, fmt.Errorf("openai model not configured; run: julesvoice config set <context> openai model <model>")
		}
		return &genx.OpenAIGenerator{
			Client:        client,
			Model:         s.OpenAI.Model,
			Params:        params,
			UseSystemRole: s.OpenAI.UseSystemRole,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want gemini or openai)", s.Assistant.Backend)
	}
}

func newTranscriber(ctx context.Context, s *config.Services) (transcribe.Transcriber, error) {
	switch s.Assistant.Transcriber {
	case "", config.BackendGemini:
		client, err := newGeminiClient(ctx, s.Gemini)
		if err != nil {
			return nil, err
		}
		model := s.Gemini.Model
		if model == "" {
			model = config.DefaultGeminiModel
		}
		return &transcribe.Generative{Generator: &genx.GeminiGenerator{Client: client, Model: model}}, nil
	case config.BackendOpenAI:
		gen, err := newGenerator(ctx, &config.Services{
			Gemini:    s.Gemini,
			OpenAI:    s.OpenAI,
			Assistant: &config.AssistantService{Backend: config.BackendOpenAI},
		})
		if err != nil {
			return nil, err
		}
		return &transcribe.Generative{Generator: gen}, nil
	case config.TranscriberWhisper:
		client, err := newOpenAIClient(s.OpenAI)
		if err != nil {
			return nil, err
		}
		return &transcribe.Whisper{Client: client, Model: s.OpenAI.TranscribeModel, Language: s.OpenAI.Language}, nil
	default:
		return nil, fmt.Errorf("unknown transcriber %q (want gemini, openai or whisper)", s.Assistant.Transcriber)
	}
}

func newJulesClient(s *config.Services) (*jules.Client, error) {
	if s.Jules.APIKey == "" {
		return nil, fmt.Errorf("jules api_key not configured; run: julesvoice config set <context> jules api_key <key>")
	}
	opts := []jules.Option{jules.WithLogger(slog.Default())}
	if s.Jules.BaseURL != "" {
		opts = append(opts, jules.WithBaseURL(s.Jules.BaseURL))
	}
	if s.Jules.StartingBranch != "" {
		opts = append(opts, jules.WithStartingBranch(s.Jules.StartingBranch))
	}
	if s.Jules.Timeout != "" {
		d, err := time.ParseDuration(s.Jules.Timeout)
		if err != nil {
			return nil, fmt.Errorf("jules timeout %q: %w", s.Jules.Timeout, err)
		}
		opts = append(opts, jules.WithTimeout(d))
	}
	return jules.NewClient(s.Jules.APIKey, opts...), nil
}

// openStore opens the interaction history of the context.
func openStore(s *config.Services) (interaction.Store, func() error, error) {
	if s.Assistant.History == "memory" {
		return interaction.NewMemory(nil), func() error { return nil }, nil
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, nil, err
	}
	dir := paths.HistoryDir(s.Context)
	if err := cli.EnsureDir(dir); err != nil {
		return nil, nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := interaction.NewBadger(interaction.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

type assistantOptions struct {
	device          capture.Device
	metrics         *metrics.Metrics
	onStateChange   func(from, to assistant.State)
	onTranscription func(id, text string)
}

// newAssistant wires an Assistant from the context's services. The
// dialogue is only wired when Jules is configured; otherwise turns are
// recorded text-only.
func newAssistant(ctx context.Context, s *config.Services, opts assistantOptions) (*assistant.Assistant, func() error, error) {
	lookback, err := s.Assistant.LookbackDuration()
	if err != nil {
		return nil, nil, err
	}

	cfg := assistant.Config{
		Device:          opts.device,
		TaskAPIKey:      s.Jules.APIKey,
		DefaultSource:   s.Jules.DefaultSource,
		Lookback:        lookback,
		Logger:          slog.Default(),
		Metrics:         opts.metrics,
		OnStateChange:   opts.onStateChange,
		OnTranscription: opts.onTranscription,
	}
	if opts.device != nil {
		if cfg.Transcriber, err = newTranscriber(ctx, s); err != nil {
			return nil, nil, err
		}
	}
	if s.Jules.APIKey != "" && s.Jules.DefaultSource != "" {
		gen, err := newGenerator(ctx, s)
		if err != nil {
			return nil, nil, err
		}
		client, err := newJulesClient(s)
		if err != nil {
			return nil, nil, err
		}
		cfg.Dialogue = &dialogue.Orchestrator{
			Generator:    gen,
			Catalog:      dialogue.NewCatalog(client, s.Jules.DefaultSource),
			Instructions: s.Assistant.Instructions,
			Params:       s.Assistant.Params,
			Logger:       slog.Default(),
			Metrics:      opts.metrics,
		}
	} else {
		slog.Warn("jules api_key or default_source not configured; turns are recorded without answers")
	}

	store, closeStore, err := openStore(s)
	if err != nil {
		return nil, nil, err
	}
	cfg.Store = store

	a := assistant.New(cfg)
	return a, func() error {
		a.Close()
		return closeStore()
	}, nil
}
