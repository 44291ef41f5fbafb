package genx

import (
	"iter"
	"slices"
)

var _ ModelContext = (*modelContext)(nil)

type ModelContextBuilder struct {
	Prompts  []*Prompt
	Messages []*Message

	Tools []Tool

	Params *ModelParams
}

func (mcb *ModelContextBuilder) Build() ModelContext {
	return &modelContext{
		prompts:  slices.Clone(mcb.Prompts),
		messages: slices.Clone(mcb.Messages),
		tools:    slices.Clone(mcb.Tools),
		params:   mcb.Params,
	}
}

func (mcb *ModelContextBuilder) lastPrompt() (*Prompt, bool) {
	if len(mcb.Prompts) == 0 {
		return nil, false
	}
	return mcb.Prompts[len(mcb.Prompts)-1], true
}

func (mcb *ModelContextBuilder) AddPrompt(prompt *Prompt) {
	if p, ok := mcb.lastPrompt(); ok && p.Name == prompt.Name {
		if p.Text != "" {
			p.Text += "\n" + prompt.Text
		} else {
			p.Text = prompt.Text
		}
		return
	}
	mcb.Prompts = append(mcb.Prompts, prompt)
}

func (mcb *ModelContextBuilder) PromptText(name, text string) {
	mcb.AddPrompt(&Prompt{
		Name: name,
		Text: text,
	})
}

// AddMessage appends msg. Messages are kept as given; backends that need
// consecutive same-role turns merged do so during conversion.
func (mcb *ModelContextBuilder) AddMessage(msg *Message) {
	mcb.Messages = append(mcb.Messages, msg)
}

func (mcb *ModelContextBuilder) AddMessages(msgs ...*Message) {
	mcb.Messages = append(mcb.Messages, msgs...)
}

func (mcb *ModelContextBuilder) UserText(name, text string) {
	mcb.AddMessage(&Message{
		Role:    RoleUser,
		Name:    name,
		Payload: Contents{Text(text)},
	})
}

func (mcb *ModelContextBuilder) UserBlob(name string, mimeType string, data []byte) {
	mcb.AddMessage(&Message{
		Role:    RoleUser,
		Name:    name,
		Payload: Contents{&Blob{MIMEType: mimeType, Data: data}},
	})
}

func (mcb *ModelContextBuilder) ModelText(name, text string) {
	mcb.AddMessage(&Message{
		Role:    RoleModel,
		Name:    name,
		Payload: Contents{Text(text)},
	})
}

// AddToolInvocation appends the model's request to call a tool.
func (mcb *ModelContextBuilder) AddToolInvocation(inv *ToolInvocation) {
	mcb.AddMessage(&Message{
		Role: RoleModel,
		Payload: &ToolCall{
			ID:       inv.CallID(),
			FuncCall: &FuncCall{Name: inv.Name, Arguments: inv.Arguments()},
		},
	})
}

// AddToolResult appends the JSON-encoded result of the tool call identified
// by inv.
func (mcb *ModelContextBuilder) AddToolResult(inv *ToolInvocation, result any) error {
	b, err := marshalJSON(result)
	if err != nil {
		return err
	}
	mcb.AddMessage(&Message{
		Role: RoleTool,
		Payload: &ToolResult{
			ID:     inv.CallID(),
			Name:   inv.Name,
			Result: string(b),
		},
	})
	return nil
}

func (mcb *ModelContextBuilder) AddTool(tool Tool) {
	mcb.Tools = append(mcb.Tools, tool)
}

type modelContext struct {
	prompts  []*Prompt
	messages []*Message

	tools []Tool

	params *ModelParams
}

func (mctx *modelContext) Prompts() iter.Seq[*Prompt] {
	return slices.Values(mctx.prompts)
}

func (mctx *modelContext) Messages() iter.Seq[*Message] {
	return slices.Values(mctx.messages)
}

func (mctx *modelContext) Tools() iter.Seq[Tool] {
	return slices.Values(mctx.tools)
}

func (mctx *modelContext) Params() *ModelParams {
	return mctx.params
}
