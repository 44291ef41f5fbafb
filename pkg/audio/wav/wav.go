// Package wav writes and reads 16-bit PCM WAV containers.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// MIMEType is the container type produced by Encode.
const MIMEType = "audio/wav"

// HeaderSize is the size of the canonical 44-byte PCM header.
const HeaderSize = 44

var (
	ErrTooShort    = errors.New("wav: data too short")
	ErrNotWAV      = errors.New("wav: missing RIFF/WAVE header")
	ErrUnsupported = errors.New("wav: unsupported format")
)

// Format describes 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono16K is the format used for speech capture.
var Mono16K = Format{SampleRate: 16000, Channels: 1}

// BytesRate returns the number of PCM bytes per second.
func (f Format) BytesRate() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns the play time of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	if f.BytesRate() == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.BytesRate())
}

// Header is the canonical RIFF header of a PCM WAV file.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// NewHeader returns the header for dataSize bytes of PCM in format f.
func NewHeader(f Format, dataSize int) Header {
	channels := uint16(f.Channels)
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.BytesRate()),
		BlockAlign:    channels * 2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
}

// Encode wraps raw PCM bytes in a WAV container. An odd trailing byte is
// dropped so the data chunk holds whole samples.
func Encode(pcm []byte, f Format) []byte {
	pcm = pcm[:len(pcm)&^1]
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(pcm)))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, NewHeader(f, len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// EncodeSamples is Encode for int16 samples.
func EncodeSamples(samples []int16, f Format) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return Encode(pcm, f)
}

// Decode parses a canonical PCM WAV file and returns its format and data.
func Decode(data []byte) (Format, []byte, error) {
	if len(data) < HeaderSize {
		return Format{}, nil, fmt.Errorf("%w: need %d bytes, got %d", ErrTooShort, HeaderSize, len(data))
	}
	var h Header
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return Format{}, nil, fmt.Errorf("wav: read header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}
	if string(h.Subchunk1ID[:]) != "fmt " || string(h.Subchunk2ID[:]) != "data" {
		return Format{}, nil, fmt.Errorf("%w: non-canonical chunk layout", ErrUnsupported)
	}
	if h.AudioFormat != 1 || h.BitsPerSample != 16 {
		return Format{}, nil, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupported, h.AudioFormat, h.BitsPerSample)
	}
	pcm := data[HeaderSize:]
	if n := int(h.Subchunk2Size); n < len(pcm) {
		pcm = pcm[:n]
	}
	return Format{SampleRate: int(h.SampleRate), Channels: int(h.NumChannels)}, pcm, nil
}
