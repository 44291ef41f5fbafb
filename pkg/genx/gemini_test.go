package genx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("genai.NewClient error: %v", err)
	}
	return &GeminiGenerator{Client: client, Model: "gemini-test"}
}

func writeJSON(w http.ResponseWriter, status int, v string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, v)
}

func TestGeminiGenerator_Text(t *testing.T) {
	var body map[string]any
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, `{"candidates":[{"content":{"role":"model","parts":[{"text":"You have two tasks."}]},"finishReason":"STOP"}]}`)
	})

	var mcb ModelContextBuilder
	mcb.UserText("", "[Past Interaction 10:00:00] hello")
	mcb.ModelText("", "hi")
	mcb.UserText("", "list my running tasks")
	mcb.AddTool(MustNewFuncTool[emptyArg]("list_running_tasks", "List"))
	mcb.AddTool(MustNewFuncTool[sendMessageArg]("send_message", "Send"))

	reply, err := g.Generate(context.Background(), mcb.Build())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if reply != TextReply("You have two tasks.") {
		t.Errorf("reply = %#v", reply)
	}

	contents, _ := body["contents"].([]any)
	if len(contents) != 3 {
		t.Errorf("len(contents) = %d, want 3", len(contents))
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("len(tools) = %d, want 1", len(tools))
	}
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	if len(decls) != 2 {
		t.Fatalf("len(functionDeclarations) = %d, want 2", len(decls))
	}
	if _, ok := decls[0].(map[string]any)["parameters"]; ok {
		t.Error("parameterless tool should not declare parameters")
	}
	if _, ok := decls[1].(map[string]any)["parameters"]; !ok {
		t.Error("send_message should declare parameters")
	}
}

func TestGeminiGenerator_FunctionCall(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_session","args":{"sessionName":"sessions/42"}}}]},"finishReason":"STOP"}]}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "how is session 42")
	reply, err := g.Generate(context.Background(), mcb.Build())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	inv, ok := reply.(*ToolInvocation)
	if !ok {
		t.Fatalf("reply type = %T, want *ToolInvocation", reply)
	}
	if inv.Name != "get_session" || inv.Args["sessionName"] != "sessions/42" {
		t.Errorf("invocation = %+v", inv)
	}
}

func TestGeminiGenerator_ToolResultRound(t *testing.T) {
	var body struct {
		Contents []struct {
			Role  string           `json:"role"`
			Parts []map[string]any `json:"parts"`
		} `json:"contents"`
	}
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, `{"candidates":[{"content":{"role":"model","parts":[{"text":"done"}]}}]}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "list")
	inv := &ToolInvocation{Name: "list_running_tasks", Args: map[string]any{}}
	mcb.AddToolInvocation(inv)
	mcb.AddToolResult(inv, map[string]any{"result": map[string]any{"sessions": []any{}}})
	if _, err := g.Generate(context.Background(), mcb.Build()); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(body.Contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(body.Contents))
	}
	if body.Contents[1].Role != "model" || body.Contents[1].Parts[0]["functionCall"] == nil {
		t.Errorf("contents[1] = %+v", body.Contents[1])
	}
	fr, _ := body.Contents[2].Parts[0]["functionResponse"].(map[string]any)
	if body.Contents[2].Role != "user" || fr["name"] != "list_running_tasks" {
		t.Errorf("contents[2] = %+v", body.Contents[2])
	}
	resp, _ := fr["response"].(map[string]any)
	if _, ok := resp["result"]; !ok {
		t.Errorf("functionResponse.response = %v, want result key", resp)
	}
}

func TestGeminiGenerator_NoContent(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"candidates":[]}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "hello")
	if _, err := g.Generate(context.Background(), mcb.Build()); !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}

func TestGeminiGenerator_BackendError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	})
	var mcb ModelContextBuilder
	mcb.UserText("", "hello")
	_, err := g.Generate(context.Background(), mcb.Build())
	e, ok := AsBackendError(err)
	if !ok {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	if e.Code != 400 || e.Message != "API key not valid" {
		t.Errorf("BackendError = %+v", e)
	}
}

func TestGeminiConvMessage_MergesSameRole(t *testing.T) {
	var mcb ModelContextBuilder
	mcb.UserText("", "a")
	mcb.UserBlob("", "audio/wav", []byte("RIFF"))
	g := &GeminiGenerator{}
	_, contents, err := g.convModelContext(mcb.Build())
	if err != nil {
		t.Fatalf("convModelContext error: %v", err)
	}
	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("contents = %+v", contents)
	}
	if contents[0].Parts[1].InlineData == nil || contents[0].Parts[1].InlineData.MIMEType != "audio/wav" {
		t.Errorf("blob part = %+v", contents[0].Parts[1])
	}
}

func TestGeminiConvModelContext_Empty(t *testing.T) {
	g := &GeminiGenerator{}
	var mcb ModelContextBuilder
	if _, _, err := g.convModelContext(mcb.Build()); err == nil {
		t.Error("expected error for empty context")
	}
}
