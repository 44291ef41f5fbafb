package genx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return &OpenAIGenerator{Client: &client, Model: "gpt-test", UseSystemRole: true}
}

func TestOpenAIGenerator_ToolCall(t *testing.T) {
	var body map[string]any
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, `{"id":"c1","object":"chat.completion","created":0,"model":"gpt-test","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"create_task","arguments":"{\"prompt\":\"fix the login bug\"}"}}]}}]}`)
	})

	var mcb ModelContextBuilder
	mcb.PromptText("", "You manage coding tasks.")
	mcb.UserText("", "create a task to fix the login bug")
	mcb.AddTool(MustNewFuncTool[sendMessageArg]("create_task", "Create"))

	reply, err := g.Generate(context.Background(), mcb.Build())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	inv, ok := reply.(*ToolInvocation)
	if !ok {
		t.Fatalf("reply type = %T, want *ToolInvocation", reply)
	}
	if inv.ID != "call_1" || inv.Name != "create_task" || inv.Args["prompt"] != "fix the login bug" {
		t.Errorf("invocation = %+v", inv)
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Errorf("messages = %v", msgs)
	}
	if tools, _ := body["tools"].([]any); len(tools) != 1 {
		t.Errorf("tools = %v", body["tools"])
	}
}

func TestOpenAIGenerator_Text(t *testing.T) {
	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, `{"id":"c2","object":"chat.completion","created":0,"model":"gpt-test","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Task created."}}]}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "create a task")
	inv := &ToolInvocation{ID: "call_1", Name: "create_task", Args: map[string]any{"prompt": "x"}}
	mcb.AddToolInvocation(inv)
	mcb.AddToolResult(inv, map[string]any{"result": map[string]any{"session": map[string]any{"name": "sessions/1"}}})

	reply, err := g.Generate(context.Background(), mcb.Build())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if reply != TextReply("Task created.") {
		t.Errorf("reply = %#v", reply)
	}
	if len(body.Messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(body.Messages))
	}
	if body.Messages[2]["role"] != "tool" || body.Messages[2]["tool_call_id"] != "call_1" {
		t.Errorf("tool message = %v", body.Messages[2])
	}
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"id":"c3","object":"chat.completion","created":0,"model":"gpt-test","choices":[]}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "hello")
	if _, err := g.Generate(context.Background(), mcb.Build()); !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}

func TestOpenAIGenerator_BackendError(t *testing.T) {
	g := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "hello")
	_, err := g.Generate(context.Background(), mcb.Build())
	e, ok := AsBackendError(err)
	if !ok {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	if e.Code != 401 || e.Message != "Incorrect API key" {
		t.Errorf("BackendError = %+v", e)
	}
}
