// Package assistant sequences microphone capture, transcription and
// dialogue turns.
//
// An Assistant runs one turn at a time:
//
//	idle --Start--> recording --Stop--> transcribing --> processing --> idle
//	idle --SubmitText--> processing --> idle
//
// Every failure returns the machine to idle. A transcribed utterance is
// published to the interaction store before the dialogue runs, and the
// entry is always finalized (its loading flag cleared) when the turn ends.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/haivivi/julesvoice/pkg/audio/capture"
	"github.com/haivivi/julesvoice/pkg/dialogue"
	"github.com/haivivi/julesvoice/pkg/genx"
	"github.com/haivivi/julesvoice/pkg/history"
	"github.com/haivivi/julesvoice/pkg/interaction"
	"github.com/haivivi/julesvoice/pkg/metrics"
	"github.com/haivivi/julesvoice/pkg/transcribe"
)

var (
	// ErrBusy is returned by Start and SubmitText unless the assistant is idle.
	ErrBusy = errors.New("assistant: busy")

	// ErrNotRecording is returned by Stop when no recording is open.
	ErrNotRecording = errors.New("assistant: not recording")

	// ErrNoTranscriber is returned by Stop when no transcriber is configured.
	ErrNoTranscriber = errors.New("assistant: language backend not configured")

	// ErrNoDevice is returned by Start when no input device is configured.
	ErrNoDevice = errors.New("assistant: no input device")
)

// Dialogue answers a prompt given the windowed history.
// *dialogue.Orchestrator implements it.
type Dialogue interface {
	Run(ctx context.Context, prompt string, history []*genx.Message) (*dialogue.Result, error)
}

var _ Dialogue = (*dialogue.Orchestrator)(nil)

// Config wires an Assistant.
type Config struct {
	Device      capture.Device
	Transcriber transcribe.Transcriber
	Dialogue    Dialogue
	Store       interaction.Store

	// The dialogue only runs when both TaskAPIKey and DefaultSource are
	// set. Otherwise turns are recorded text-only.
	TaskAPIKey    string
	DefaultSource string

	// Lookback bounds the history sent with each prompt. Zero uses
	// history.DefaultLookback.
	Lookback time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to State)

	// OnTranscription is called as soon as an utterance has been
	// transcribed and published, before the dialogue runs.
	OnTranscription func(id, text string)
}

// Turn is the outcome of one turn.
type Turn struct {
	ID        string                 `json:"id" yaml:"id"`
	Text      string                 `json:"text" yaml:"text"`
	Response  string                 `json:"response,omitempty" yaml:"response,omitempty"`
	ToolCalls []interaction.ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
}

// Assistant is the capture/processing state machine.
type Assistant struct {
	cfg Config

	mu      sync.Mutex
	state   State
	opening bool
	session *capture.Session
	closed  bool
}

// New creates an idle Assistant. Store defaults to an in-memory store.
func New(cfg Config) *Assistant {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = interaction.NewMemory(&interaction.Options{Now: cfg.Now})
	}
	a := &Assistant{cfg: cfg}
	cfg.Metrics.SetState(StateIdle.String(), stateNames()...)
	return a
}

// State returns the current state.
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// DialogueEnabled reports whether turns are answered by the dialogue.
func (a *Assistant) DialogueEnabled() bool {
	return a.cfg.Dialogue != nil && a.cfg.TaskAPIKey != "" && a.cfg.DefaultSource != ""
}

// Store returns the interaction store.
func (a *Assistant) Store() interaction.Store {
	return a.cfg.Store
}

func (a *Assistant) idleLocked() bool {
	return a.state == StateIdle && !a.opening && !a.closed
}

// transition moves to the given state and notifies the observer.
func (a *Assistant) transition(to State) {
	a.mu.Lock()
	from := a.state
	a.state = to
	a.mu.Unlock()
	a.notify(from, to)
}

func (a *Assistant) notify(from, to State) {
	if from == to {
		return
	}
	a.cfg.Logger.Debug("assistant: state", "from", from, "to", to)
	a.cfg.Metrics.SetState(to.String(), stateNames()...)
	if a.cfg.OnStateChange != nil {
		a.cfg.OnStateChange(from, to)
	}
}

// Start opens a capture session and moves to recording. If the device
// cannot be acquired the assistant stays idle and the error wraps
// capture.ErrPermissionDenied.
func (a *Assistant) Start(ctx context.Context) error {
	if a.cfg.Device == nil {
		return ErrNoDevice
	}
	a.mu.Lock()
	if !a.idleLocked() {
		a.mu.Unlock()
		return ErrBusy
	}
	a.opening = true
	a.mu.Unlock()

	session, err := capture.Open(ctx, a.cfg.Device)

	a.mu.Lock()
	a.opening = false
	if err != nil {
		a.mu.Unlock()
		a.cfg.Logger.Warn("assistant: open capture", "error", err)
		return err
	}
	if a.closed {
		a.mu.Unlock()
		session.Close()
		return ErrBusy
	}
	a.session = session
	from := a.state
	a.state = StateRecording
	a.mu.Unlock()
	a.notify(from, StateRecording)
	return nil
}

// Stop closes the capture session, transcribes the utterance and, when the
// dialogue is enabled, answers it. The machine is idle when Stop returns.
//
// A transcription failure creates no interaction. A dialogue failure leaves
// the published interaction without a response.
func (a *Assistant) Stop(ctx context.Context) (*Turn, error) {
	a.mu.Lock()
	if a.state != StateRecording || a.session == nil {
		a.mu.Unlock()
		return nil, ErrNotRecording
	}
	session := a.session
	a.session = nil
	a.state = StateTranscribing
	a.mu.Unlock()
	a.notify(StateRecording, StateTranscribing)

	start := time.Now()
	text, err := a.transcribe(ctx, session)
	if err != nil {
		a.cfg.Metrics.RecordTranscriptionFailure()
		a.cfg.Metrics.RecordTurn(metrics.InputVoice, time.Since(start), err)
		a.transition(StateIdle)
		return nil, err
	}
	return a.publish(ctx, metrics.InputVoice, text, start)
}

func (a *Assistant) transcribe(ctx context.Context, session *capture.Session) (string, error) {
	audio, err := session.Close()
	if err != nil {
		a.cfg.Logger.Warn("assistant: close capture", "error", err)
	}
	if a.cfg.Transcriber == nil {
		return "", ErrNoTranscriber
	}
	if len(audio.Data) == 0 {
		return "", transcribe.ErrEmptyTranscription
	}
	a.cfg.Logger.Debug("assistant: transcribing", "bytes", len(audio.Data), "mime", audio.MIMEType)
	return a.cfg.Transcriber.Transcribe(ctx, audio.Data, audio.MIMEType)
}

// SubmitText answers typed input, skipping capture and transcription.
// Blank input is ignored and yields a nil Turn.
func (a *Assistant) SubmitText(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	a.mu.Lock()
	if !a.idleLocked() {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	from := a.state
	a.state = StateProcessing
	a.mu.Unlock()
	a.notify(from, StateProcessing)

	return a.publish(ctx, metrics.InputText, text, time.Now())
}

// publish allocates the interaction for text and finalizes it.
func (a *Assistant) publish(ctx context.Context, input, text string, start time.Time) (turn *Turn, err error) {
	defer func() {
		a.cfg.Metrics.RecordTurn(input, time.Since(start), err)
		a.transition(StateIdle)
	}()

	// Take the history before the new entry exists.
	past, err := a.cfg.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("assistant: list interactions: %w", err)
	}
	id, err := a.cfg.Store.Allocate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("assistant: allocate interaction: %w", err)
	}
	if a.cfg.OnTranscription != nil {
		a.cfg.OnTranscription(id, text)
	}
	turn = &Turn{ID: id, Text: text}

	if !a.DialogueEnabled() {
		return turn, a.merge(ctx, id, interaction.Patch{})
	}

	a.transition(StateProcessing)
	msgs := history.Window(past, a.cfg.Now(), a.cfg.Lookback)
	res, err := a.cfg.Dialogue.Run(ctx, text, msgs)
	if err != nil {
		a.cfg.Logger.Error("assistant: dialogue", "id", id, "error", err)
		if mergeErr := a.merge(ctx, id, interaction.Patch{}); mergeErr != nil {
			a.cfg.Logger.Error("assistant: finalize interaction", "id", id, "error", mergeErr)
		}
		return turn, err
	}
	turn.Response = res.Text
	turn.ToolCalls = res.ToolCalls
	return turn, a.merge(ctx, id, interaction.Patch{
		Response:  &res.Text,
		ToolCalls: res.ToolCalls,
	})
}

func (a *Assistant) merge(ctx context.Context, id string, p interaction.Patch) error {
	// The entry must not stay loading when the turn context is gone.
	if err := a.cfg.Store.Merge(context.WithoutCancel(ctx), id, p); err != nil {
		return fmt.Errorf("assistant: merge interaction: %w", err)
	}
	return nil
}

// Close releases an open capture session. The assistant refuses new turns
// afterwards. Close is safe to call more than once.
func (a *Assistant) Close() error {
	a.mu.Lock()
	a.closed = true
	session := a.session
	a.session = nil
	from := a.state
	if session != nil {
		a.state = StateIdle
	}
	a.mu.Unlock()

	if session == nil {
		return nil
	}
	a.notify(from, StateIdle)
	_, err := session.Close()
	return err
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Failed to access microphone. Please check permissions."
	case errors.Is(err, ErrNoTranscriber):
		return "Please configure your Gemini API key in settings."
	default:
		return "Processing error: " + err.Error()
	}
}
