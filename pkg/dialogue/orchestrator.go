package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/interaction"
	"github.com/haivivi/julesvoice/pkg/metrics"
)

// Fallback answers.
const (
	NoResponseText      = "No response from the model."
	NoTextResponseText  = "No text response."
	NoFinalResponseText = "No final response."
)

// ErrBackend is returned when round 1 fails. The underlying
// *genx.BackendError or transport error is wrapped.
var ErrBackend = errors.New("dialogue: backend error")

// Result is the outcome of one turn.
type Result struct {
	Text      string                 `json:"text" yaml:"text"`
	ToolCalls []interaction.ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
}

// Orchestrator runs tool-calling turns.
type Orchestrator struct {
	Generator genx.Generator
	Catalog   *Catalog

	// Instructions is an optional system prompt.
	Instructions string
	Params       *genx.ModelParams

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) context(history []*genx.Message, prompt string) *genx.ModelContextBuilder {
	mcb := &genx.ModelContextBuilder{Params: o.Params}
	if o.Instructions != "" {
		mcb.PromptText("", o.Instructions)
	}
	mcb.AddMessages(history...)
	mcb.UserText("", prompt)
	if o.Catalog != nil {
		for _, t := range o.Catalog.Tools() {
			mcb.AddTool(t)
		}
	}
	return mcb
}

// Run answers prompt given the prior history. At most one tool is
// dispatched. Only a round-1 failure is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, prompt string, history []*genx.Message) (*Result, error) {
	mcb := o.context(history, prompt)

	reply, err := o.Generator.Generate(ctx, mcb.Build())
	o.Metrics.RecordBackendRound("1", ignoreNoContent(err))
	if errors.Is(err, genx.ErrNoContent) {
		return &Result{Text: NoResponseText}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	inv, ok := reply.(*genx.ToolInvocation)
	if !ok {
		text := replyText(reply)
		if text == "" {
			text = NoTextResponseText
		}
		return &Result{Text: text}, nil
	}

	result, failed := o.dispatch(ctx, inv)
	o.Metrics.RecordToolDispatch(inv.Name, failed)
	call := interaction.ToolCall{
		Name:   inv.Name,
		Args:   inv.Args,
		Result: result,
	}
	if call.Args == nil {
		call.Args = map[string]any{}
	}

	mcb.AddToolInvocation(inv)
	if err := mcb.AddToolResult(inv, map[string]any{"result": result}); err != nil {
		o.logger().Warn("dialogue: encode tool result", "tool", inv.Name, "error", err)
		return &Result{Text: NoFinalResponseText, ToolCalls: []interaction.ToolCall{call}}, nil
	}

	reply, err = o.Generator.Generate(ctx, mcb.Build())
	o.Metrics.RecordBackendRound("2", ignoreNoContent(err))
	text := ""
	if err != nil {
		if !errors.Is(err, genx.ErrNoContent) {
			o.logger().Warn("dialogue: final round failed", "tool", inv.Name, "error", err)
		}
	} else {
		text = replyText(reply)
	}
	if text == "" {
		text = NoFinalResponseText
	}
	return &Result{Text: text, ToolCalls: []interaction.ToolCall{call}}, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, inv *genx.ToolInvocation) (any, bool) {
	if o.Catalog == nil {
		return errorResult(ErrUnknownFunction), true
	}
	result, failed := o.Catalog.Dispatch(ctx, inv)
	if failed {
		o.logger().Warn("dialogue: tool failed", "tool", inv.Name, "result", result)
	} else {
		o.logger().Debug("dialogue: tool done", "tool", inv.Name)
	}
	return result, failed
}

func replyText(r genx.Reply) string {
	t, ok := r.(genx.TextReply)
	if !ok {
		return ""
	}
	if strings.TrimSpace(string(t)) == "" {
		return ""
	}
	return string(t)
}

// ignoreNoContent treats an empty answer as a successful round.
func ignoreNoContent(err error) error {
	if errors.Is(err, genx.ErrNoContent) {
		return nil
	}
	return err
}
