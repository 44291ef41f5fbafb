package dialogue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/jules"
)

// Tool names.
const (
	ToolListRunningTasks = "list_running_tasks"
	ToolCreateTask       = "create_task"
	ToolApprovePlan      = "approve_plan"
	ToolSendMessage      = "send_message"
	ToolGetSession       = "get_session"
	ToolListActivities   = "list_activities"
	ToolListSources      = "list_sources"
)

// ErrUnknownFunction is the error text returned to the model for a tool
// name outside the catalog.
const ErrUnknownFunction = "Unknown function"

// TaskService is the subset of the Jules client the catalog dispatches to.
// *jules.Client implements it.
type TaskService interface {
	ListSessions(ctx context.Context, pageSize int) ([]jules.Session, error)
	CreateSession(ctx context.Context, req *jules.CreateSessionRequest) (*jules.Session, error)
	GetSession(ctx context.Context, name string) (*jules.Session, error)
	ApprovePlan(ctx context.Context, name string) error
	SendMessage(ctx context.Context, name, text string) error
	ListActivities(ctx context.Context, name string, pageSize int) ([]jules.Activity, error)
	ListSources(ctx context.Context, pageSize int) ([]jules.Source, error)
}

var _ TaskService = (*jules.Client)(nil)

type noArgs struct{}

type createTaskArgs struct {
	Prompt string `json:"prompt" jsonschema:"The detailed task description for Jules"`
	Repo   string `json:"repo,omitempty" jsonschema:"Source name of the repository, e.g. sources/github/owner/repo. Defaults to the configured repository."`
}

type sessionArgs struct {
	SessionName string `json:"sessionName" jsonschema:"Session resource name, e.g. sessions/123"`
}

type sendMessageArgs struct {
	SessionName string `json:"sessionName" jsonschema:"Session resource name, e.g. sessions/123"`
	Message     string `json:"message" jsonschema:"The message to send to Jules"`
}

// Catalog is the fixed set of tools advertised to the model.
type Catalog struct {
	tools  []*genx.FuncTool
	byName map[string]*genx.FuncTool
}

// NewCatalog builds the Jules tool catalog. defaultSource is used by
// create_task when the model does not name a repository.
func NewCatalog(svc TaskService, defaultSource string) *Catalog {
	tools := []*genx.FuncTool{
		genx.MustNewFuncTool[noArgs](
			ToolListRunningTasks,
			"List the user's recent Jules tasks (sessions) and their states.",
			genx.InvokeFunc[noArgs](func(ctx context.Context, _ *genx.FuncCall, _ noArgs) (any, error) {
				sessions, err := svc.ListSessions(ctx, 0)
				if err != nil {
					return nil, err
				}
				return map[string]any{"sessions": sessions}, nil
			}),
		),
		genx.MustNewFuncTool[createTaskArgs](
			ToolCreateTask,
			"Create a new Jules coding task in a repository.",
			genx.InvokeFunc[createTaskArgs](func(ctx context.Context, _ *genx.FuncCall, arg createTaskArgs) (any, error) {
				source := arg.Repo
				if source == "" {
					source = defaultSource
				}
				s, err := svc.CreateSession(ctx, &jules.CreateSessionRequest{
					Prompt: arg.Prompt,
					Source: source,
				})
				if err != nil {
					return nil, err
				}
				return map[string]any{"session": s}, nil
			}),
		),
		genx.MustNewFuncTool[sessionArgs](
			ToolApprovePlan,
			"Approve the plan a Jules session is waiting on.",
			genx.InvokeFunc[sessionArgs](func(ctx context.Context, _ *genx.FuncCall, arg sessionArgs) (any, error) {
				if err := svc.ApprovePlan(ctx, arg.SessionName); err != nil {
					return nil, err
				}
				return map[string]any{"success": true}, nil
			}),
		),
		genx.MustNewFuncTool[sendMessageArgs](
			ToolSendMessage,
			"Send a follow-up message or instruction to a Jules session.",
			genx.InvokeFunc[sendMessageArgs](func(ctx context.Context, _ *genx.FuncCall, arg sendMessageArgs) (any, error) {
				if err := svc.SendMessage(ctx, arg.SessionName, arg.Message); err != nil {
					return nil, err
				}
				return map[string]any{"success": true}, nil
			}),
		),
		genx.MustNewFuncTool[sessionArgs](
			ToolGetSession,
			"Get the details and state of one Jules session.",
			genx.InvokeFunc[sessionArgs](func(ctx context.Context, _ *genx.FuncCall, arg sessionArgs) (any, error) {
				s, err := svc.GetSession(ctx, arg.SessionName)
				if err != nil {
					return nil, err
				}
				return map[string]any{"session": s}, nil
			}),
		),
		genx.MustNewFuncTool[sessionArgs](
			ToolListActivities,
			"List the recent activities (plans, progress, messages) of a Jules session.",
			genx.InvokeFunc[sessionArgs](func(ctx context.Context, _ *genx.FuncCall, arg sessionArgs) (any, error) {
				acts, err := svc.ListActivities(ctx, arg.SessionName, 0)
				if err != nil {
					return nil, err
				}
				return map[string]any{"activities": acts}, nil
			}),
		),
		genx.MustNewFuncTool[noArgs](
			ToolListSources,
			"List the repositories connected to Jules.",
			genx.InvokeFunc[noArgs](func(ctx context.Context, _ *genx.FuncCall, _ noArgs) (any, error) {
				sources, err := svc.ListSources(ctx, 0)
				if err != nil {
					return nil, err
				}
				return map[string]any{"sources": sources}, nil
			}),
		),
	}
	c := &Catalog{
		tools:  tools,
		byName: make(map[string]*genx.FuncTool, len(tools)),
	}
	for _, t := range tools {
		c.byName[t.Name] = t
	}
	return c
}

// Tools returns the catalog in declaration order.
func (c *Catalog) Tools() []*genx.FuncTool {
	return c.tools
}

// Lookup returns the tool with the given name.
func (c *Catalog) Lookup(name string) (*genx.FuncTool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Dispatch runs the tool inv names and returns its JSON-shaped result.
// Unknown names, argument errors, tool errors and panics all produce
// {"error": message}; failed reports whether that happened.
func (c *Catalog) Dispatch(ctx context.Context, inv *genx.ToolInvocation) (result any, failed bool) {
	tool, ok := c.Lookup(inv.Name)
	if !ok {
		return errorResult(ErrUnknownFunction), true
	}
	v, err := invoke(ctx, tool, inv)
	if err != nil {
		return errorResult(errorMessage(err)), true
	}
	normalized, err := toJSONValue(v)
	if err != nil {
		return errorResult(err.Error()), true
	}
	return normalized, false
}

func invoke(ctx context.Context, tool *genx.FuncTool, inv *genx.ToolInvocation) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", tool.Name, r)
		}
	}()
	return tool.NewFuncCall(inv.Arguments()).Invoke(ctx)
}

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// ServiceErrorPrefix marks tool errors reported by the task service, as
// opposed to argument or transport failures.
const ServiceErrorPrefix = "Jules API Error: "

// errorMessage prefers the message reported by the task service.
func errorMessage(err error) string {
	if e, ok := jules.AsError(err); ok {
		return ServiceErrorPrefix + e.Message
	}
	return err.Error()
}

// toJSONValue converts v to the generic form it has on the wire, so the
// recorded result and the one sent to the model are the same value.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dialogue: encode tool result: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("dialogue: decode tool result: %w", err)
	}
	return out, nil
}
