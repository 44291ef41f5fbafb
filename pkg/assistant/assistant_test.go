package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haivivi/julesvoice/pkg/audio/capture"
	"github.com/haivivi/julesvoice/pkg/dialogue"
	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/interaction"
	"github.com/haivivi/julesvoice/pkg/transcribe"
)

type micDevice struct {
	openErr error

	mu      sync.Mutex
	rec     *micRecorder
	stopped int
}

func (d *micDevice) Supports(mimeType string) bool { return mimeType == capture.MIMETypeWAV }

func (d *micDevice) Open(context.Context, string) (capture.Recorder, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec = &micRecorder{dev: d, ch: make(chan []byte, 8)}
	return d.rec, nil
}

type micRecorder struct {
	dev  *micDevice
	ch   chan []byte
	once sync.Once
}

func (r *micRecorder) Chunks() <-chan []byte { return r.ch }

func (r *micRecorder) Stop() error {
	r.once.Do(func() {
		r.dev.mu.Lock()
		r.dev.stopped++
		r.dev.mu.Unlock()
		close(r.ch)
	})
	return nil
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte
	mime string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, data []byte, mimeType string) (string, error) {
	f.got = data
	f.mime = mimeType
	return f.text, f.err
}

type fakeDialogue struct {
	result  *dialogue.Result
	err     error
	prompt  string
	history []*genx.Message
	during  func()
}

func (f *fakeDialogue) Run(_ context.Context, prompt string, history []*genx.Message) (*dialogue.Result, error) {
	f.prompt = prompt
	f.history = history
	if f.during != nil {
		f.during()
	}
	return f.result, f.err
}

type fixture struct {
	a          *Assistant
	dev        *micDevice
	tr         *fakeTranscriber
	dlg        *fakeDialogue
	store      *interaction.Memory
	transcript []string

	mu          sync.Mutex
	transitions []string
}

func newFixture(t *testing.T, configure func(*Config)) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	f := &fixture{
		dev: &micDevice{},
		tr:  &fakeTranscriber{text: "list my running tasks"},
		dlg: &fakeDialogue{result: &dialogue.Result{Text: "You have two tasks."}},
		store: interaction.NewMemory(&interaction.Options{
			Now:   func() time.Time { return now },
			NewID: func() string { n++; return fmt.Sprintf("it-%d", n) },
		}),
	}
	cfg := Config{
		Device:        f.dev,
		Transcriber:   f.tr,
		Dialogue:      f.dlg,
		Store:         f.store,
		TaskAPIKey:    "jules-key",
		DefaultSource: "sources/github/acme/app",
		Now:           func() time.Time { return now },
		OnStateChange: func(from, to State) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.transitions = append(f.transitions, from.String()+">"+to.String())
		},
		OnTranscription: func(id, text string) {
			f.transcript = append(f.transcript, id+":"+text)
		},
	}
	if configure != nil {
		configure(&cfg)
	}
	f.a = New(cfg)
	t.Cleanup(func() { f.a.Close() })
	return f
}

func (f *fixture) record(t *testing.T, chunks ...string) {
	t.Helper()
	if err := f.a.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	for _, c := range chunks {
		f.dev.rec.ch <- []byte(c)
	}
}

func (f *fixture) list(t *testing.T) []*interaction.Interaction {
	t.Helper()
	list, err := f.store.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	return list
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, nil)

	f.record(t, "abc", "", "def")
	if s := f.a.State(); s != StateRecording {
		t.Fatalf("State = %v, want recording", s)
	}
	if err := f.a.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start = %v, want ErrBusy", err)
	}
	if _, err := f.a.SubmitText(context.Background(), "hi"); !errors.Is(err, ErrBusy) {
		t.Errorf("SubmitText while recording = %v, want ErrBusy", err)
	}

	turn, err := f.a.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if s := f.a.State(); s != StateIdle {
		t.Errorf("State = %v, want idle", s)
	}
	if string(f.tr.got) != "abcdef" || f.tr.mime != capture.MIMETypeWAV {
		t.Errorf("transcriber got %q (%s)", f.tr.got, f.tr.mime)
	}
	if f.dev.stopped != 1 {
		t.Errorf("device stopped %d times, want 1", f.dev.stopped)
	}
	if turn.ID != "it-1" || turn.Text != "list my running tasks" || turn.Response != "You have two tasks." {
		t.Errorf("turn = %+v", turn)
	}
	if len(f.transcript) != 1 || f.transcript[0] != "it-1:list my running tasks" {
		t.Errorf("transcriptions = %v", f.transcript)
	}

	want := "idle>recording,recording>transcribing,transcribing>processing,processing>idle"
	if got := strings.Join(f.transitions, ","); got != want {
		t.Errorf("transitions = %s, want %s", got, want)
	}

	list := f.list(t)
	if len(list) != 1 || list[0].IsLoading || list[0].Response != "You have two tasks." {
		t.Errorf("interactions = %+v", list)
	}
}

func TestStop_NotRecording(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.a.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop = %v, want ErrNotRecording", err)
	}
}

func TestStart_PermissionDenied(t *testing.T) {
	f := newFixture(t, nil)
	f.dev.openErr = errors.New("device busy")

	err := f.a.Start(context.Background())
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("Start = %v, want ErrPermissionDenied", err)
	}
	if s := f.a.State(); s != StateIdle {
		t.Errorf("State = %v, want idle", s)
	}
	if msg := UserMessage(err); msg != "Failed to access microphone. Please check permissions." {
		t.Errorf("UserMessage = %q", msg)
	}
	if len(f.transitions) != 0 {
		t.Errorf("transitions = %v, want none", f.transitions)
	}
}

func TestStop_TranscriptionFailed(t *testing.T) {
	f := newFixture(t, nil)
	f.tr.err = fmt.Errorf("%w: quota exceeded", transcribe.ErrTranscriptionFailed)

	f.record(t, "abc")
	_, err := f.a.Stop(context.Background())
	if !errors.Is(err, transcribe.ErrTranscriptionFailed) {
		t.Fatalf("Stop = %v, want ErrTranscriptionFailed", err)
	}
	if s := f.a.State(); s != StateIdle {
		t.Errorf("State = %v, want idle", s)
	}
	if list := f.list(t); len(list) != 0 {
		t.Errorf("interactions = %+v, want none", list)
	}
	if f.dlg.prompt != "" {
		t.Errorf("dialogue ran with %q", f.dlg.prompt)
	}
	if msg := UserMessage(err); !strings.HasPrefix(msg, "Processing error: ") {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestStop_EmptyRecording(t *testing.T) {
	f := newFixture(t, nil)
	f.record(t)
	if _, err := f.a.Stop(context.Background()); !errors.Is(err, transcribe.ErrEmptyTranscription) {
		t.Errorf("Stop = %v, want ErrEmptyTranscription", err)
	}
	if f.tr.got != nil {
		t.Errorf("transcriber called with %q", f.tr.got)
	}
}

func TestTextOnlyWithoutCredentials(t *testing.T) {
	for _, tc := range []struct {
		name   string
		key    string
		source string
	}{
		{"no key", "", "sources/github/acme/app"},
		{"no source", "jules-key", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(c *Config) {
				c.TaskAPIKey = tc.key
				c.DefaultSource = tc.source
			})
			turn, err := f.a.SubmitText(context.Background(), "hello")
			if err != nil {
				t.Fatalf("SubmitText error: %v", err)
			}
			if turn.Response != "" || f.dlg.prompt != "" {
				t.Errorf("dialogue ran: turn=%+v", turn)
			}
			list := f.list(t)
			if len(list) != 1 || list[0].IsLoading || list[0].Response != "" {
				t.Errorf("interactions = %+v", list)
			}
		})
	}
}

func TestSubmitText(t *testing.T) {
	f := newFixture(t, nil)
	f.dlg.result = &dialogue.Result{
		Text: "Created the task.",
		ToolCalls: []interaction.ToolCall{{
			Name:   "create_task",
			Args:   map[string]any{"prompt": "fix login"},
			Result: map[string]any{"session": map[string]any{"name": "sessions/1"}},
		}},
	}
	f.dlg.during = func() {
		if s := f.a.State(); s != StateProcessing {
			t.Errorf("State during dialogue = %v, want processing", s)
		}
	}

	turn, err := f.a.SubmitText(context.Background(), "create a task to fix login")
	if err != nil {
		t.Fatalf("SubmitText error: %v", err)
	}
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Name != "create_task" {
		t.Errorf("turn = %+v", turn)
	}
	list := f.list(t)
	if len(list) != 1 || list[0].Response != "Created the task." || len(list[0].ToolCalls) != 1 {
		t.Errorf("interactions = %+v", list)
	}
	want := "idle>processing,processing>idle"
	if got := strings.Join(f.transitions, ","); got != want {
		t.Errorf("transitions = %s, want %s", got, want)
	}
}

func TestSubmitText_Blank(t *testing.T) {
	f := newFixture(t, nil)
	turn, err := f.a.SubmitText(context.Background(), "  \n")
	if turn != nil || err != nil {
		t.Errorf("SubmitText = %v, %v; want nil, nil", turn, err)
	}
	if list := f.list(t); len(list) != 0 {
		t.Errorf("interactions = %+v", list)
	}
}

func TestSubmitText_History(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.a.SubmitText(context.Background(), "first"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := f.a.SubmitText(context.Background(), "second"); err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if f.dlg.prompt != "second" {
		t.Errorf("prompt = %q", f.dlg.prompt)
	}
	if len(f.dlg.history) != 2 {
		t.Fatalf("history = %d messages, want 2", len(f.dlg.history))
	}
	if got := f.dlg.history[0].Text(); !strings.HasSuffix(got, "] first") {
		t.Errorf("history[0] = %q", got)
	}
	if got := f.dlg.history[1].Text(); got != "You have two tasks." {
		t.Errorf("history[1] = %q", got)
	}
}

func TestSubmitText_DialogueError(t *testing.T) {
	f := newFixture(t, nil)
	f.dlg.err = fmt.Errorf("%w: API key not valid", dialogue.ErrBackend)

	turn, err := f.a.SubmitText(context.Background(), "hello")
	if !errors.Is(err, dialogue.ErrBackend) {
		t.Fatalf("SubmitText = %v, want ErrBackend", err)
	}
	if turn == nil || turn.ID == "" {
		t.Fatalf("turn = %+v, want the published entry", turn)
	}
	if s := f.a.State(); s != StateIdle {
		t.Errorf("State = %v, want idle", s)
	}
	list := f.list(t)
	if len(list) != 1 || list[0].IsLoading || list[0].Response != "" {
		t.Errorf("interactions = %+v", list)
	}
}

func TestClose_ReleasesDevice(t *testing.T) {
	f := newFixture(t, nil)
	f.record(t, "abc")

	if err := f.a.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if f.dev.stopped != 1 {
		t.Errorf("device stopped %d times, want 1", f.dev.stopped)
	}
	if s := f.a.State(); s != StateIdle {
		t.Errorf("State = %v, want idle", s)
	}
	if err := f.a.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Start after Close = %v, want ErrBusy", err)
	}
	if err := f.a.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:         "idle",
		StateRecording:    "recording",
		StateTranscribing: "transcribing",
		StateProcessing:   "processing",
		State(42):         "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d) = %q, want %q", int(s), got, want)
		}
	}
}
