// Package transcribe turns a recorded utterance into text.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/openai/openai-go"

	"github.com/haivivi/julesvoice/pkg/genx"
)

// DefaultInstruction is sent alongside the audio to generative backends.
const DefaultInstruction = "Please transcribe this audio accurately. Only return the transcription, nothing else."

var (
	// ErrTranscriptionFailed is returned when the backend reports an error.
	ErrTranscriptionFailed = errors.New("transcribe: transcription failed")

	// ErrEmptyTranscription is returned when the backend answered without
	// any usable text.
	ErrEmptyTranscription = errors.New("transcribe: empty transcription")
)

// Transcriber converts audio into text. The returned text is never blank.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

var (
	_ Transcriber = (*Generative)(nil)
	_ Transcriber = (*Whisper)(nil)
)

// Generative transcribes with a multimodal language backend: one user turn
// holding the instruction and the audio as an inline blob.
type Generative struct {
	Generator genx.Generator

	// Instruction defaults to DefaultInstruction.
	Instruction string
}

func (g *Generative) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	instruction := g.Instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}
	var mcb genx.ModelContextBuilder
	mcb.AddMessage(&genx.Message{
		Role: genx.RoleUser,
		Payload: genx.Contents{
			genx.Text(instruction),
			&genx.Blob{MIMEType: mimeType, Data: data},
		},
	})

	reply, err := g.Generator.Generate(ctx, mcb.Build())
	if err != nil {
		if errors.Is(err, genx.ErrNoContent) {
			return "", ErrEmptyTranscription
		}
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	text, ok := reply.(genx.TextReply)
	if !ok {
		return "", ErrEmptyTranscription
	}
	return nonBlank(string(text))
}

// Whisper transcribes with the OpenAI audio transcription endpoint.
type Whisper struct {
	Client *openai.Client

	// Model defaults to whisper-1.
	Model string

	// Language is an optional ISO-639-1 hint.
	Language string
}

func (w *Whisper) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	model := w.Model
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "speech"+extension(mimeType), mimeType),
		Model: model,
	}
	if w.Language != "" {
		params.Language = openai.String(w.Language)
	}
	resp, err := w.Client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return nonBlank(resp.Text)
}

func nonBlank(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyTranscription
	}
	return s, nil
}

// extension returns a file extension for a container type. The OpenAI
// endpoint infers the codec from the file name.
func extension(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = mimeType
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/flac":
		return ".flac"
	}
	return ".wav"
}

// MIMETypeOf guesses the container type from a file name.
func MIMETypeOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "audio/wav"
	}
	switch strings.ToLower(name[i:]) {
	case ".ogg", ".oga", ".opus":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	}
	return "audio/wav"
}
