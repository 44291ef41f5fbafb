// Package portaudio records speech from the default input device through
// the PortAudio C library.
//
// For go build: requires portaudio installed via pkg-config (brew install portaudio)
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_input(void **stream,
                             const PaStreamParameters *inputParams,
                             double sampleRate,
                             unsigned long framesPerBuffer) {
    return Pa_OpenStream((PaStream**)stream, inputParams, NULL, sampleRate,
                         framesPerBuffer, paClipOff, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

var ErrNoInputDevice = errors.New("portaudio: no default input device")

func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New("portaudio: " + C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes an input-capable device.
type DeviceInfo struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"max_input_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	IsDefault         bool    `json:"is_default"`
}

// InputDevices lists devices with at least one input channel.
func InputDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}
	def := int(C.Pa_GetDefaultInputDevice())

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxInputChannels <= 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefault:         i == def,
		})
	}
	return devices, nil
}

// stream is a blocking-read PortAudio input stream of int16 samples.
type stream struct {
	ptr        unsafe.Pointer
	buffer     unsafe.Pointer
	frames     int
	bufferSize int

	mu     sync.Mutex
	closed bool
}

func openInput(channels, sampleRate, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	dev := C.Pa_GetDefaultInputDevice()
	if dev == C.paNoDevice {
		return nil, ErrNoInputDevice
	}
	info := C.Pa_GetDeviceInfo(dev)
	params := &C.PaStreamParameters{
		device:                    dev,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		suggestedLatency:          info.defaultLowInputLatency,
		hostApiSpecificStreamInfo: nil,
	}

	var ptr unsafe.Pointer
	if err := paError(C.pa_open_input(&ptr, params, C.double(sampleRate), C.ulong(framesPerBuffer))); err != nil {
		return nil, err
	}
	bufferSize := framesPerBuffer * channels * 2
	s := &stream{
		ptr:        ptr,
		buffer:     C.malloc(C.size_t(bufferSize)),
		frames:     framesPerBuffer,
		bufferSize: bufferSize,
	}
	if err := paError(C.pa_start_stream(ptr)); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// read blocks until one buffer of little-endian PCM is available.
func (s *stream) read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("portaudio: stream closed")
	}
	if err := paError(C.pa_read_stream(s.ptr, s.buffer, C.ulong(s.frames))); err != nil {
		return nil, err
	}
	return C.GoBytes(s.buffer, C.int(s.bufferSize)), nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.ptr)
	err := paError(C.pa_close_stream(s.ptr))
	C.free(s.buffer)
	return err
}
