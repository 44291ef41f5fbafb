package portaudio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haivivi/julesvoice/pkg/audio/capture"
	"github.com/haivivi/julesvoice/pkg/audio/wav"
)

var _ capture.Device = (*Microphone)(nil)

// Microphone is the default input device as a capture.Device. It records
// 16-bit PCM and seals it into a WAV container.
type Microphone struct {
	Format wav.Format

	// BufferDuration is the length of each chunk read from the device.
	// Defaults to 100ms.
	BufferDuration time.Duration

	Logger *slog.Logger
}

func (m *Microphone) Supports(mimeType string) bool {
	return mimeType == wav.MIMEType
}

func (m *Microphone) Open(_ context.Context, mimeType string) (capture.Recorder, error) {
	if !m.Supports(mimeType) {
		return nil, fmt.Errorf("portaudio: unsupported container %s", mimeType)
	}
	format := m.Format
	if format.SampleRate == 0 {
		format = wav.Mono16K
	}
	d := m.BufferDuration
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	frames := int(time.Duration(format.SampleRate) * d / time.Second)

	s, err := openInput(format.Channels, format.SampleRate, frames)
	if err != nil {
		return nil, err
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return newRecorder(s, format, logger), nil
}

// source is the blocking input a recorder reads from.
type source interface {
	read() ([]byte, error)
	close() error
}

var _ source = (*stream)(nil)

func newRecorder(src source, format wav.Format, logger *slog.Logger) *recorder {
	r := &recorder{
		src:    src,
		format: format,
		logger: logger,
		chunks: make(chan []byte, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

type recorder struct {
	src    source
	format wav.Format
	logger *slog.Logger

	chunks chan []byte

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	err      error
}

func (r *recorder) loop() {
	defer close(r.done)
	defer close(r.chunks)
	defer func() {
		if err := r.src.close(); err != nil && r.err == nil {
			r.err = err
		}
	}()
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		b, err := r.src.read()
		if err != nil {
			r.logger.Warn("portaudio: read failed", "error", err)
			r.err = err
			return
		}
		// A buffer read while stopping still belongs to the utterance.
		r.chunks <- b
	}
}

func (r *recorder) Chunks() <-chan []byte {
	return r.chunks
}

func (r *recorder) Stop() error {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
	return r.err
}

func (r *recorder) Seal(payload []byte) []byte {
	return wav.Encode(payload, r.format)
}
