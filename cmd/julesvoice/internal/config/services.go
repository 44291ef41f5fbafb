package config

import (
	"fmt"
	"time"

	"github.com/haivivi/julesvoice/pkg/genx"
)

// Service names.
const (
	ServiceGemini    = "gemini"
	ServiceJules     = "jules"
	ServiceOpenAI    = "openai"
	ServiceAssistant = "assistant"
)

// Backend and transcriber names in assistant.yaml.
const (
	BackendGemini      = "gemini"
	BackendOpenAI      = "openai"
	TranscriberWhisper = "whisper"
)

// DefaultGeminiModel is used when gemini.yaml names no model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiService is the gemini.yaml schema.
type GeminiService struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// JulesService is the jules.yaml schema.
type JulesService struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty"`
	DefaultSource  string `yaml:"default_source,omitempty"`
	StartingBranch string `yaml:"starting_branch,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
}

// OpenAIService is the openai.yaml schema. It serves any OpenAI-compatible
// endpoint.
type OpenAIService struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url,omitempty"`
	Model           string `yaml:"model,omitempty"`
	TranscribeModel string `yaml:"transcribe_model,omitempty"`
	Language        string `yaml:"language,omitempty"`
	UseSystemRole   bool   `yaml:"use_system_role,omitempty"`
	MaxRetries      int    `yaml:"max_retries,omitempty"`
}

// AssistantService is the assistant.yaml schema.
type AssistantService struct {
	// Backend is "gemini" (default) or "openai".
	Backend string `yaml:"backend,omitempty"`

	// Transcriber is "gemini" (default), "openai" or "whisper". "openai"
	// sends the audio to the chat backend, "whisper" uses the audio API.
	Transcriber string `yaml:"transcriber,omitempty"`

	// Lookback is a Go duration, e.g. "30m".
	Lookback string `yaml:"lookback,omitempty"`

	Instructions string            `yaml:"instructions,omitempty"`
	Params       *genx.ModelParams `yaml:"params,omitempty"`

	// History is "badger" (default) or "memory".
	History string `yaml:"history,omitempty"`
}

// LookbackDuration parses Lookback. Empty yields 0.
func (a *AssistantService) LookbackDuration() (time.Duration, error) {
	if a.Lookback == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Lookback)
	if err != nil {
		return 0, fmt.Errorf("assistant lookback %q: %w", a.Lookback, err)
	}
	return d, nil
}

// Services is every service config of one context. Missing files load as
// zero values.
type Services struct {
	Context   string
	Gemini    *GeminiService
	Jules     *JulesService
	OpenAI    *OpenAIService
	Assistant *AssistantService
}

// LoadServices loads all service configs of the named context (or the
// current one).
func (c *Config) LoadServices(contextName string) (*Services, error) {
	name, err := c.ResolveContextName(contextName)
	if err != nil {
		return nil, err
	}
	dir, err := c.ResolveContext(name)
	if err != nil {
		return nil, err
	}
	s := &Services{Context: name}
	if s.Gemini, err = LoadOptionalService[GeminiService](dir, ServiceGemini); err != nil {
		return nil, err
	}
	if s.Jules, err = LoadOptionalService[JulesService](dir, ServiceJules); err != nil {
		return nil, err
	}
	if s.OpenAI, err = LoadOptionalService[OpenAIService](dir, ServiceOpenAI); err != nil {
		return nil, err
	}
	if s.Assistant, err = LoadOptionalService[AssistantService](dir, ServiceAssistant); err != nil {
		return nil, err
	}
	return s, nil
}
