package genx

import (
	"context"
	"iter"
)

type ModelParams struct {
	MaxTokens   int     `json:"max_tokens,omitzero" yaml:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitzero" yaml:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitzero" yaml:"top_p,omitempty"`
	TopK        float32 `json:"top_k,omitzero" yaml:"top_k,omitempty"`
}

type Prompt struct {
	Name string
	Text string
}

type Tool interface {
	isTool()
}

type ModelContext interface {
	Prompts() iter.Seq[*Prompt]
	Messages() iter.Seq[*Message]
	Tools() iter.Seq[Tool]

	Params() *ModelParams
}

// Generator sends a single round of a model context to a language backend.
//
// Generate returns ErrNoContent when the backend answered without any usable
// part, and a *BackendError when the backend reported an error.
type Generator interface {
	Generate(ctx context.Context, mctx ModelContext) (Reply, error)
}
