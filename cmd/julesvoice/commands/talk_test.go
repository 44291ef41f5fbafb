package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haivivi/julesvoice/pkg/assistant"
	"github.com/haivivi/julesvoice/pkg/audio/capture"
	"github.com/haivivi/julesvoice/pkg/cli"
	"github.com/haivivi/julesvoice/pkg/interaction"
)

func TestToolCallLine(t *testing.T) {
	tests := []struct {
		name string
		tc   interaction.ToolCall
		want string
	}{
		{"no result", interaction.ToolCall{Name: "list_sources"}, "  ↳ list_sources"},
		{"short", interaction.ToolCall{Name: "approve_plan", Result: map[string]any{"success": true}}, `  ↳ approve_plan {"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toolCallLine(tt.tc); got != tt.want {
				t.Errorf("toolCallLine = %q, want %q", got, tt.want)
			}
		})
	}

	long := interaction.ToolCall{
		Name:   "list_running_tasks",
		Result: map[string]any{"sessions": []any{strings.Repeat("x", 200)}},
	}
	got := toolCallLine(long)
	result := strings.TrimPrefix(got, "  ↳ list_running_tasks ")
	if !strings.HasSuffix(result, "…") || len([]rune(result)) != toolResultWidth {
		t.Errorf("toolCallLine = %q, want result truncated to %d cells", got, toolResultWidth)
	}
}

func TestPrintTurn(t *testing.T) {
	var out, errOut bytes.Buffer
	styles := cli.NewStyles(cli.DefaultTheme)
	turn := &assistant.Turn{
		Text:      "what are my tasks",
		Response:  "You have one running task.",
		ToolCalls: []interaction.ToolCall{{Name: "list_running_tasks", Result: map[string]any{"sessions": []any{}}}},
	}

	printTurn(&out, &errOut, styles, turn, nil, 1500*time.Millisecond)

	for _, want := range []string{"what are my tasks", "list_running_tasks", "You have one running task.", "1.5s"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q, want empty", errOut.String())
	}
}

func TestPrintTurn_Errors(t *testing.T) {
	styles := cli.NewStyles(cli.DefaultTheme)

	var out, errOut bytes.Buffer
	printTurn(&out, &errOut, styles, nil, assistant.ErrBusy, 0)
	if !strings.Contains(errOut.String(), "busy") || out.Len() != 0 {
		t.Errorf("busy: stdout %q, stderr %q", out.String(), errOut.String())
	}

	errOut.Reset()
	printTurn(&out, &errOut, styles, nil, errors.Join(capture.ErrPermissionDenied, errors.New("no mic")), 0)
	if !strings.Contains(errOut.String(), "Failed to access microphone") {
		t.Errorf("permission: stderr %q", errOut.String())
	}
}
