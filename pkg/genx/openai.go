package genx

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

var _ Generator = (*OpenAIGenerator)(nil)

const oaiFinishReasonContentFilter = "content_filter"

// OpenAIGenerator implements Generator using an OpenAI-compatible chat
// completions endpoint.
type OpenAIGenerator struct {
	Client *openai.Client `json:"-"`

	Model string `json:"model"`

	Params *ModelParams `json:"params,omitzero"`

	// UseSystemRole sends prompts with the system role instead of the
	// developer role. Most OpenAI-compatible servers need it.
	UseSystemRole   bool `json:"use_system_role,omitzero"`
	SupportTextOnly bool `json:"support_text_only,omitzero"`

	ExtraFields map[string]any `json:"extra_fields,omitzero"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, mctx ModelContext) (Reply, error) {
	params, err := g.chatCompletion(mctx)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, oaiConvError(err)
	}
	return oaiDecodeReply(resp)
}

func oaiDecodeReply(resp *openai.ChatCompletion) (Reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrNoContent
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, &BackendError{Status: oaiFinishReasonContentFilter, Message: choice.Message.Refusal}
	}
	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		args, err := DecodeArgs(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("genx: decode arguments of %s: %w", tc.Function.Name, err)
		}
		return &ToolInvocation{ID: tc.ID, Name: tc.Function.Name, Args: args}, nil
	}
	if choice.FinishReason == oaiFinishReasonContentFilter {
		return nil, &BackendError{Status: oaiFinishReasonContentFilter, Message: "blocked by content filter"}
	}
	if !choice.Message.JSON.Content.Valid() && choice.Message.Content == "" {
		return nil, ErrNoContent
	}
	return TextReply(choice.Message.Content), nil
}

func oaiConvError(err error) error {
	var e *openai.Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = e.RawJSON()
		}
		return &BackendError{Code: e.StatusCode, Status: e.Type, Message: msg}
	}
	return err
}

func (g *OpenAIGenerator) chatCompletion(mctx ModelContext) (openai.ChatCompletionNewParams, error) {
	msgs, err := g.convModelContext(mctx)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    g.Model,
	}
	mp := g.Params
	if p := mctx.Params(); p != nil {
		mp = p
	}
	if mp != nil {
		if mp.MaxTokens > 0 {
			params.MaxCompletionTokens = param.NewOpt(int64(mp.MaxTokens))
		}
		if mp.Temperature > 0 {
			params.Temperature = param.NewOpt(float64(mp.Temperature))
		}
		if mp.TopP > 0 {
			params.TopP = param.NewOpt(float64(mp.TopP))
		}
	}
	for tool := range mctx.Tools() {
		switch tool := tool.(type) {
		case *FuncTool:
			fn := openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
			}
			if tool.HasParameters() {
				fn.Parameters = oaiConvSchema(tool.Argument)
			}
			params.Tools = append(params.Tools, openai.ChatCompletionToolParam{Function: fn})
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("unexpected tool type: %T", tool)
		}
	}
	if len(g.ExtraFields) > 0 {
		params.SetExtraFields(g.ExtraFields)
	}
	return params, nil
}

func (g *OpenAIGenerator) convModelContext(mctx ModelContext) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := []openai.ChatCompletionMessageParamUnion{}
	for p := range mctx.Prompts() {
		out = append(out, g.convPrompt(p))
	}
	for msg := range mctx.Messages() {
		param, err := g.convMessage(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, param)
	}
	return out, nil
}

func (g *OpenAIGenerator) convPrompt(p *Prompt) openai.ChatCompletionMessageParamUnion {
	if g.UseSystemRole {
		mp := openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.NewOpt(p.Text),
				},
			},
		}
		if p.Name != "" {
			mp.OfSystem.Name = param.NewOpt(p.Name)
		}
		return mp
	}
	mp := openai.ChatCompletionMessageParamUnion{
		OfDeveloper: &openai.ChatCompletionDeveloperMessageParam{
			Content: openai.ChatCompletionDeveloperMessageParamContentUnion{
				OfString: param.NewOpt(p.Text),
			},
		},
	}
	if p.Name != "" {
		mp.OfDeveloper.Name = param.NewOpt(p.Name)
	}
	return mp
}

func (g *OpenAIGenerator) convMessage(msg *Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch t := msg.Payload.(type) {
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unexpected message type: %T", t)
	case Contents:
		switch msg.Role {
		default:
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unexpected content message role: %s", msg.Role)
		case RoleUser:
			return g.convUserMessage(msg.Name, t)
		case RoleModel:
			text := msg.Text()
			if text == "" {
				return openai.ChatCompletionMessageParamUnion{}, errors.New("model message must contain text")
			}
			return openai.AssistantMessage(text), nil
		}
	case *ToolCall:
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: []openai.ChatCompletionMessageToolCallParam{
					{
						ID: t.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      t.FuncCall.Name,
							Arguments: t.FuncCall.Arguments,
						},
					},
				},
			},
		}, nil
	case *ToolResult:
		return openai.ToolMessage(t.Result, t.ID), nil
	}
}

func (g *OpenAIGenerator) convUserMessage(name string, contents Contents) (openai.ChatCompletionMessageParamUnion, error) {
	var (
		text  bytes.Buffer
		parts []openai.ChatCompletionContentPartUnionParam
	)
	for _, c := range contents {
		switch v := c.(type) {
		case Text:
			text.WriteString(string(v))
		case *Blob:
			if g.SupportTextOnly {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("model %v supports text messages only", g.Model)
			}
			var format string
			switch v.MIMEType {
			case "audio/mp3", "audio/mpeg":
				format = "mp3"
			case "audio/wav", "audio/x-wav":
				format = "wav"
			default:
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported blob type: %s", v.MIMEType)
			}
			parts = append(parts, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64.StdEncoding.EncodeToString(v.Data),
				Format: format,
			}))
		}
	}
	mp := openai.ChatCompletionUserMessageParam{}
	if len(parts) == 0 {
		if text.Len() == 0 {
			return openai.ChatCompletionMessageParamUnion{}, errors.New("user message must contain text")
		}
		mp.Content.OfString = param.NewOpt(text.String())
	} else {
		if text.Len() > 0 {
			parts = append([]openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(text.String())}, parts...)
		}
		mp.Content.OfArrayOfContentParts = parts
	}
	if name != "" {
		mp.Name = param.NewOpt(name)
	}
	return openai.ChatCompletionMessageParamUnion{OfUser: &mp}, nil
}

func oaiConvSchema(s *jsonschema.Schema) openai.FunctionParameters {
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m openai.FunctionParameters
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
