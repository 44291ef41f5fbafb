package genx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator implements Generator using Google Gemini API.
type GeminiGenerator struct {
	Client *genai.Client `json:"-"`

	Params *ModelParams `json:"params,omitzero"`

	// Model should not start with "models/"
	Model string `json:"model"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, mctx ModelContext) (Reply, error) {
	cfg, contents, err := g.convModelContext(mctx)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		return nil, geminiConvError(err)
	}
	return geminiDecodeReply(resp)
}

// geminiDecodeReply returns the first usable part of the first candidate.
func geminiDecodeReply(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoContent
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return nil, ErrNoContent
	}
	for _, p := range c.Content.Parts {
		switch {
		case p == nil, p.Thought:
			continue
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			return &ToolInvocation{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: args,
			}, nil
		default:
			return TextReply(p.Text), nil
		}
	}
	return nil, ErrNoContent
}

func geminiConvError(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		if u := e.Unwrap(); u != nil {
			err = u
		}
	}
	var ve genai.APIError
	if errors.As(err, &ve) {
		return &BackendError{Code: ve.Code, Status: ve.Status, Message: ve.Message}
	}
	var pe *genai.APIError
	if errors.As(err, &pe) && pe != nil {
		return &BackendError{Code: pe.Code, Status: pe.Status, Message: pe.Message}
	}
	return err
}

func geminiConvMessage(last *genai.Content, msg *Message) (new *genai.Content, err error) {
	var (
		role  string
		parts []*genai.Part
	)
	switch t := msg.Payload.(type) {
	default:
		return nil, fmt.Errorf("unexpected message type: %T", t)
	case Contents:
		switch msg.Role {
		default:
			return nil, fmt.Errorf("mismatched role and type: role=%s, type=%T", msg.Role, msg.Payload)
		case RoleUser:
			role = "user"
		case RoleModel:
			role = "model"
		}
		for _, c := range t {
			switch v := c.(type) {
			case Text:
				parts = append(parts, genai.NewPartFromText(string(v)))
			case *Blob:
				parts = append(parts, genai.NewPartFromBytes(v.Data, v.MIMEType))
			}
		}
	case *ToolCall:
		role = "model"
		args, err := DecodeArgs(t.FuncCall.Arguments)
		if err != nil {
			args = map[string]any{"text": t.FuncCall.Arguments}
		}
		parts = append(parts, genai.NewPartFromFunctionCall(t.FuncCall.Name, args))
	case *ToolResult:
		role = "user"
		var result map[string]any
		if err := json.Unmarshal([]byte(t.Result), &result); err != nil || result == nil {
			result = map[string]any{"text": t.Result}
		}
		name := t.Name
		if name == "" {
			name = t.ID
		}
		parts = append(parts, genai.NewPartFromFunctionResponse(name, result))
	}
	if last == nil || last.Role != role {
		return &genai.Content{
			Role:  role,
			Parts: parts,
		}, nil
	}
	last.Parts = append(last.Parts, parts...)
	return nil, nil
}

func (g *GeminiGenerator) convModelContext(mctx ModelContext) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := genai.GenerateContentConfig{}
	prompts := []*genai.Part{}
	for p := range mctx.Prompts() {
		prompts = append(prompts, genai.NewPartFromText(p.Text))
	}
	if len(prompts) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: prompts}
	}
	mp := g.Params
	if p := mctx.Params(); p != nil {
		mp = p
	}
	if mp != nil {
		cfg.MaxOutputTokens = int32(mp.MaxTokens)
		if mp.Temperature != 0 {
			cfg.Temperature = &mp.Temperature
		}
		if mp.TopP != 0 {
			cfg.TopP = &mp.TopP
		}
		if mp.TopK != 0 {
			cfg.TopK = &mp.TopK
		}
	}

	var decls []*genai.FunctionDeclaration
	for t := range mctx.Tools() {
		switch t := t.(type) {
		case *FuncTool:
			decl := &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
			}
			if t.HasParameters() {
				decl.Parameters = geminiConvSchema(t.Argument)
			}
			decls = append(decls, decl)
		default:
			return nil, nil, fmt.Errorf("unexpected tool type: %T", t)
		}
	}
	if len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	var (
		contents []*genai.Content
		last     *genai.Content
	)
	for msg := range mctx.Messages() {
		new, err := geminiConvMessage(last, msg)
		if err != nil {
			return nil, nil, err
		}
		if new != nil {
			contents = append(contents, new)
			last = new
		}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("no contents")
	}

	return &cfg, contents, nil
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	var enums []string
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}

	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}

	typ := schema.Type
	if typ == "" {
		// jsonschema.For emits ["null", T] for pointer and slice fields.
		for _, t := range schema.Types {
			if t != "null" {
				typ = t
				break
			}
		}
	}
	switch typ {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
