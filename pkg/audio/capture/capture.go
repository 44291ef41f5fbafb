// Package capture buffers audio from an input device for the duration of a
// single utterance.
//
// A Session owns the device from Open until Close. Chunks delivered by the
// device are appended in arrival order; Close stops the device, waits for
// the buffered chunks to drain and returns the utterance as one payload.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	// MIMETypeOgg is the preferred container.
	MIMETypeOgg = "audio/ogg"
	// MIMETypeWAV is the fallback container every device must accept.
	MIMETypeWAV = "audio/wav"
)

// ErrPermissionDenied is returned when the input device cannot be acquired.
var ErrPermissionDenied = errors.New("capture: permission denied")

// Device is an audio input that can record in one or more containers.
type Device interface {
	Supports(mimeType string) bool
	Open(ctx context.Context, mimeType string) (Recorder, error)
}

// Recorder is an open recording on a Device.
//
// Chunks must be closed by the recorder after Stop returns or when the
// recording ends on its own.
type Recorder interface {
	Chunks() <-chan []byte
	Stop() error
}

// Sealer is implemented by recorders that emit raw payload which needs a
// container wrapped around it once the recording is complete.
type Sealer interface {
	Seal(payload []byte) []byte
}

// Audio is a finished recording.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Negotiate returns the container to record in.
func Negotiate(dev Device) string {
	if dev.Supports(MIMETypeOgg) {
		return MIMETypeOgg
	}
	return MIMETypeWAV
}

// Session is an open capture on a device.
type Session struct {
	mimeType string
	rec      Recorder

	mu  sync.Mutex
	buf bytes.Buffer

	done chan struct{}

	closeOnce sync.Once
	audio     Audio
	closeErr  error
}

// Open acquires dev and starts buffering its chunks. Any failure to acquire
// the device is reported as ErrPermissionDenied.
func Open(ctx context.Context, dev Device) (*Session, error) {
	mimeType := Negotiate(dev)
	rec, err := dev.Open(ctx, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	s := &Session{
		mimeType: mimeType,
		rec:      rec,
		done:     make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (s *Session) pump() {
	defer close(s.done)
	for chunk := range s.rec.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		s.mu.Lock()
		s.buf.Write(chunk)
		s.mu.Unlock()
	}
}

// MIMEType returns the negotiated container type.
func (s *Session) MIMEType() string {
	return s.mimeType
}

// Len returns the number of bytes buffered so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Close stops the recorder, releases the device and returns the buffered
// audio. Subsequent calls return the same result without touching the
// device.
func (s *Session) Close() (Audio, error) {
	s.closeOnce.Do(func() {
		err := s.rec.Stop()
		<-s.done

		s.mu.Lock()
		data := bytes.Clone(s.buf.Bytes())
		s.buf.Reset()
		s.mu.Unlock()

		if sealer, ok := s.rec.(Sealer); ok {
			data = sealer.Seal(data)
		}
		s.audio = Audio{Data: data, MIMEType: s.mimeType}
		if err != nil {
			s.closeErr = fmt.Errorf("capture: stop recorder: %w", err)
		}
	})
	return s.audio, s.closeErr
}
