package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type session struct {
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := Output(map[string]any{"name": "test", "value": 123}, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("name = %v, want %q", result["name"], "test")
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(session{Name: "sessions/1", State: "COMPLETED"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: sessions/1") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("hello", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestOutput_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("x", OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output(session{Name: "sessions/1"}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), `"sessions/1"`) {
		t.Errorf("file = %s", data)
	}
}

func TestOutput_Query(t *testing.T) {
	sessions := []session{{"sessions/1", "IN_PROGRESS"}, {"sessions/2", "COMPLETED"}}

	var buf bytes.Buffer
	err := Output(sessions, OutputOptions{
		Format: FormatJSON,
		Query:  `[.[] | select(.state == "COMPLETED") | .name]`,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[\n  \"sessions/2\"\n]" {
		t.Errorf("output = %q", got)
	}
}

func TestQuery(t *testing.T) {
	input := map[string]any{"sessions": []session{{"sessions/1", "A"}, {"sessions/2", "B"}}}
	tests := []struct {
		expr string
		want string
	}{
		{".sessions[0].name", `"sessions/1"`},
		{".sessions[].state", `["A","B"]`},
		{".missing", `null`},
		{"empty", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Query(input, tt.expr)
			if err != nil {
				t.Fatalf("Query error: %v", err)
			}
			b, _ := json.Marshal(v)
			if string(b) != tt.want {
				t.Errorf("Query(%q) = %s, want %s", tt.expr, b, tt.want)
			}
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	if _, err := Query(nil, ".["); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Query(map[string]any{"a": 1}, `error("boom")`); err == nil {
		t.Error("expected runtime error")
	}
}
