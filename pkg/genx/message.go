package genx

import (
	"context"
	"fmt"
	"strings"
)

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

var (
	_ Payload = (*Contents)(nil)
	_ Payload = (*ToolCall)(nil)
	_ Payload = (*ToolResult)(nil)

	_ Part = (*Blob)(nil)
	_ Part = (*Text)(nil)
)

type Message struct {
	Role    Role
	Name    string
	Payload Payload
}

// Text returns the concatenated text parts of a Contents message.
func (m *Message) Text() string {
	c, ok := m.Payload.(Contents)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, p := range c {
		if t, ok := p.(Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

type Role string

func (r Role) String() string {
	return string(r)
}

type Payload interface {
	isPayload()
}

type FuncCall struct {
	Name      string
	Arguments string

	tool *FuncTool
}

func (f *FuncCall) Invoke(ctx context.Context) (any, error) {
	if f.tool == nil {
		return nil, fmt.Errorf("tool not found: name=%s", f.Name)
	}
	if f.tool.Invoke == nil {
		return nil, fmt.Errorf("invoke function not set: name=%s", f.Name)
	}
	return f.tool.Invoke(ctx, f, f.Arguments)
}

type ToolCall struct {
	ID       string
	FuncCall *FuncCall
}

func (*ToolCall) isPayload() {}

type ToolResult struct {
	ID string
	// Name is the function name the result answers. Gemini correlates
	// function responses by name.
	Name   string
	Result string
}

func (*ToolResult) isPayload() {}

type Contents []Part

func (Contents) isPayload() {}

type Part interface {
	isPart()
}

type Blob struct {
	MIMEType string
	Data     []byte
}

func (*Blob) isPart() {}

type Text string

func (Text) isPart() {}
