package wav

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	f := Format{SampleRate: 8000, Channels: 1}
	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = int16(16383 * math.Sin(2*math.Pi*440*float64(i)/8000))
	}

	data := EncodeSamples(samples, f)
	if len(data) != HeaderSize+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), HeaderSize+len(samples)*2)
	}

	got, pcm, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got != f {
		t.Errorf("format = %+v, want %+v", got, f)
	}
	if len(pcm) != len(samples)*2 {
		t.Errorf("len(pcm) = %d, want %d", len(pcm), len(samples)*2)
	}
	if d := got.Duration(len(pcm)); d != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", d)
	}
}

func TestEncodeOddLength(t *testing.T) {
	data := Encode([]byte{1, 2, 3}, Mono16K)
	if len(data) != HeaderSize+2 {
		t.Errorf("len = %d, want %d", len(data), HeaderSize+2)
	}
}

func TestEncodeEmpty(t *testing.T) {
	data := Encode(nil, Mono16K)
	_, pcm, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(pcm) != 0 {
		t.Errorf("len(pcm) = %d, want 0", len(pcm))
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2, 3}); !errors.Is(err, ErrTooShort) {
		t.Errorf("short: err = %v, want ErrTooShort", err)
	}
	fake := make([]byte, 50)
	copy(fake, "FAKE")
	if _, _, err := Decode(fake); !errors.Is(err, ErrNotWAV) {
		t.Errorf("fake: err = %v, want ErrNotWAV", err)
	}
}
