package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type taskRequest struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Source string `json:"source" yaml:"source"`
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"task.yaml": "prompt: fix the login bug\nsource: sources/github/acme/app\n",
		"task.json": `{"prompt":"fix the login bug","source":"sources/github/acme/app"}`,
		"task.txt":  `{"prompt": "fix the login bug", "source": "sources/github/acme/app"}`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			var req taskRequest
			if err := LoadRequest(path, &req); err != nil {
				t.Fatalf("LoadRequest error: %v", err)
			}
			if req.Prompt != "fix the login bug" || req.Source != "sources/github/acme/app" {
				t.Errorf("req = %+v", req)
			}
		})
	}
}

func TestLoadRequest_Errors(t *testing.T) {
	var req taskRequest
	if err := LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"), &req); err == nil {
		t.Error("expected error for missing file")
	}
	if err := ParseRequest([]byte("{bad"), "x.json", &req); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadRequestFrom(t *testing.T) {
	var req taskRequest
	if err := LoadRequestFrom(strings.NewReader("prompt: hi\n"), &req); err != nil {
		t.Fatalf("LoadRequestFrom error: %v", err)
	}
	if req.Prompt != "hi" {
		t.Errorf("Prompt = %q", req.Prompt)
	}
}
